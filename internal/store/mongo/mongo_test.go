package mongo

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/store"
)

func TestStripInternalDropsBookkeeping(t *testing.T) {
	doc := bson.M{
		"_id":       "L1",
		"_seq":      int64(42),
		"id":        "L1",
		"status":    "new",
		"checklist": bson.M{"quote_shared": true},
	}

	var opp domain.Opportunity
	if err := store.Decode(stripInternal(doc), &opp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if opp.ID != "L1" || !opp.Checklist.QuoteShared {
		t.Fatalf("unexpected decode %+v", opp)
	}

	stripped := stripInternal(doc)
	if _, ok := stripped["_id"]; ok {
		t.Fatalf("expected _id to be removed")
	}
	if _, ok := stripped["_seq"]; ok {
		t.Fatalf("expected _seq to be removed")
	}
}

func TestSeqCounterUpdateIncrementsPerCollection(t *testing.T) {
	filter, update := seqCounterUpdate(store.Leads)
	if filter[idField] != string(store.Leads) {
		t.Fatalf("unexpected filter %v", filter)
	}
	inc, ok := update["$inc"].(bson.M)
	if !ok || inc["seq"] != int64(1) {
		t.Fatalf("expected $inc seq by 1, got %v", update)
	}
}

// Runs only when CRM_TEST_MONGO_URI points at a disposable server.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("CRM_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CRM_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := Connect(ctx, uri, "crm_test_"+uuid.NewString()[:8])
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestInsertOrderFollowsSharedCounter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Two handles on one database stand in for two API instances.
	other := &Store{client: s.client, db: s.db}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := s
			if i%2 == 1 {
				target = other
			}
			id := uuid.NewString()
			if err := target.Insert(ctx, store.Leads, id, domain.Lead{ID: id}); err != nil {
				t.Errorf("insert: %v", err)
			}
		}(i)
	}
	wg.Wait()

	cursor, err := s.db.Collection(string(store.Leads)).Find(ctx, bson.M{})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	seen := make(map[int64]bool, len(docs))
	for _, doc := range docs {
		seq, _ := doc[orderField].(int64)
		if seq < 1 || seq > 10 || seen[seq] {
			t.Fatalf("expected unique sequence numbers 1..10, got %v", doc[orderField])
		}
		seen[seq] = true
	}

	first := domain.Lead{ID: "first", Phone: "7345550001"}
	if err := s.Insert(ctx, store.Leads, first.ID, first); err != nil {
		t.Fatalf("insert first: %v", err)
	}
	if err := other.Insert(ctx, store.Leads, "second", domain.Lead{ID: "second", Phone: "7345550001"}); err != nil {
		t.Fatalf("insert second: %v", err)
	}
	var hit domain.Lead
	if err := s.FindFirst(ctx, store.Leads, "phone", "7345550001", &hit); err != nil {
		t.Fatalf("find first: %v", err)
	}
	if hit.ID != "first" {
		t.Fatalf("expected first inserted lead to win, got %q", hit.ID)
	}
}
