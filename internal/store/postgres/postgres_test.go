package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/platform/db"
)

// Runs only when CRM_TEST_DATABASE_URL points at a disposable database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("CRM_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CRM_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.RunMigrations(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(pool)
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	phone := "734" + uuid.NewString()[:7]
	first := domain.Lead{ID: uuid.NewString(), Phone: phone, Status: domain.StageNew}
	second := domain.Lead{ID: uuid.NewString(), Phone: phone, Status: domain.StageNew}
	for _, lead := range []domain.Lead{first, second} {
		if err := s.Insert(ctx, store.Leads, lead.ID, lead); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := s.Insert(ctx, store.Leads, first.ID, first); !errors.Is(err, store.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	var found domain.Lead
	if err := s.FindFirst(ctx, store.Leads, "phone", phone, &found); err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.ID != first.ID {
		t.Fatalf("expected first inserted lead %s, got %s", first.ID, found.ID)
	}

	if err := s.Patch(ctx, store.Leads, first.ID, map[string]any{"status": domain.StageContacted}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if err := s.Get(ctx, store.Leads, first.ID, &found); err != nil {
		t.Fatalf("get: %v", err)
	}
	if found.Status != domain.StageContacted || found.Phone != phone {
		t.Fatalf("unexpected record after patch: %+v", found)
	}

	if err := s.Patch(ctx, store.Leads, uuid.NewString(), map[string]any{"status": "new"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
