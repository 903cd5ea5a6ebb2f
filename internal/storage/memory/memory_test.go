package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"expenses/internal/storage"
	"expenses/internal/storage/storagetest"

	"github.com/stretchr/testify/suite"
)

func TestMemoryStore(t *testing.T) {
	s := &storagetest.RepositorySuite{}
	s.NewRepository = func() storage.Repository { return New(storage.DefaultCategories) }
	suite.Run(t, s)
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	// No file -> defaults
	s := NewFromFiles(dir)
	cats, _ := s.ListCategories(context.Background())
	if len(cats) != len(storage.DefaultCategories) {
		t.Fatalf("expected defaults when file missing, got %d", len(cats))
	}

	content := "# header\nc1,Zeta\nc2,Alpha\nc1,Duplicate\n\nLoose\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}

	s = NewFromFiles(dir)
	cats, _ = s.ListCategories(context.Background())
	if len(cats) != 3 {
		t.Fatalf("unexpected cats: %v", cats)
	}
	if cats[0].Name != "Alpha" || cats[1].Name != "Loose" || cats[2].Name != "Zeta" {
		t.Fatalf("unexpected order: %v", cats)
	}
	if cats[0].ID != "c2" || cats[1].ID == "" {
		t.Fatalf("unexpected ids: %v", cats)
	}
}
