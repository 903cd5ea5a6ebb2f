package postgres

import (
	"context"
	"os"
	"testing"

	"expenses/internal/storage"
	"expenses/internal/storage/storagetest"

	"github.com/stretchr/testify/suite"
)

// Set TEST_DATABASE_URL to a disposable database to run these tests.
func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	s := &storagetest.RepositorySuite{}
	s.NewRepository = func() storage.Repository {
		ctx := context.Background()
		repo, err := New(ctx, dsn)
		s.Require().NoError(err)
		_, err = repo.pool.Exec(ctx, `TRUNCATE expenses, expense_activity`)
		s.Require().NoError(err)
		return repo
	}
	suite.Run(t, s)
}
