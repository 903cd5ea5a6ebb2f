// Command expenses-token mints a bearer token for local development.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"expenses/internal/auth"
	"expenses/internal/cli"
	"expenses/internal/core"
)

func main() {
	cli.LoadEnvFile()

	var (
		sub    = flag.String("sub", "", "user id placed in the sub claim (required)")
		email  = flag.String("email", "", "optional email claim")
		ttl    = flag.Duration("ttl", 24*time.Hour, "token lifetime")
		secret = flag.String("secret", os.Getenv("AUTH_JWT_SECRET"), "HS256 signing secret")
		issuer = flag.String("issuer", os.Getenv("AUTH_ISSUER"), "iss claim")
	)
	flag.Parse()

	if *sub == "" || *secret == "" {
		flag.Usage()
		os.Exit(2)
	}

	tok, err := auth.NewResolver(*secret, *issuer).Issue(core.Caller{ID: *sub, Email: *email}, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "issue token:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
