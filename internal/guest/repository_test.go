package guest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/evcraddock/campbook/internal/db"
)

func TestInsertAndGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	g, err := repo.Insert(ctx, &Guest{FullName: "  Ana Pérez ", City: "Córdoba", Province: "Córdoba"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if g.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if g.FullName != "Ana Pérez" {
		t.Errorf("full_name = %q, want trimmed", g.FullName)
	}
	if g.Country != DefaultCountry {
		t.Errorf("country = %q, want %q", g.Country, DefaultCountry)
	}

	got, err := repo.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.City != "Córdoba" {
		t.Errorf("city = %q, want %q", got.City, "Córdoba")
	}
}

func TestInsertRequiresName(t *testing.T) {
	repo := testRepo(t)

	if _, err := repo.Insert(context.Background(), &Guest{FullName: "   "}); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestUpdate(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	g, err := repo.Insert(ctx, &Guest{FullName: "Juan"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	Details{FullName: "Juan Gómez", Country: "Uruguay", Phone: "+598 1234"}.Apply(g)
	if err := repo.Update(ctx, g); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FullName != "Juan Gómez" || got.Country != "Uruguay" || got.Phone != "+598 1234" {
		t.Errorf("got %+v", got)
	}
}

func TestGetAndUpdateNotFound(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("get error = %v, want ErrNotFound", err)
	}
	if err := repo.Update(ctx, &Guest{ID: 9999, FullName: "Nobody"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update error = %v, want ErrNotFound", err)
	}
}

func TestDetailsApplyKeepsBlankFields(t *testing.T) {
	g := &Guest{FullName: "Ana", City: "Salta", Country: "Argentina"}
	Details{City: "  ", Province: "Salta"}.Apply(g)

	if g.City != "Salta" {
		t.Errorf("city = %q, want unchanged", g.City)
	}
	if g.Province != "Salta" {
		t.Errorf("province = %q, want %q", g.Province, "Salta")
	}
	if g.FullName != "Ana" {
		t.Errorf("full_name = %q, want unchanged", g.FullName)
	}
}

func testRepo(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewRepository(d)
}
