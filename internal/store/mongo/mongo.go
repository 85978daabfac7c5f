// Package mongo stores CRM records as documents in MongoDB, one Mongo
// collection per CRM collection.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"dealer_crm_backend/internal/store"
)

const (
	idField    = "_id"
	orderField = "_seq"

	// countersCollection holds one document per CRM collection whose seq
	// field is the last insertion number handed out.
	countersCollection = "_counters"
)

// Store implements store.Store on a Mongo database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri and selects database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Ping checks connectivity for the readiness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the lookup indexes used by FindFirst.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	leads := []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}, {Key: orderField, Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: orderField, Value: 1}}},
	}
	if _, err := s.db.Collection(string(store.Leads)).Indexes().CreateMany(ctx, leads); err != nil {
		return fmt.Errorf("create lead indexes: %w", err)
	}
	for _, coll := range []store.Collection{store.Opportunities, store.Appointments, store.FinanceApplications, store.ConsentEvents} {
		model := mongo.IndexModel{Keys: bson.D{{Key: "lead_id", Value: 1}, {Key: orderField, Value: 1}}}
		if _, err := s.db.Collection(string(coll)).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create %s index: %w", coll, err)
		}
	}
	return nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, coll store.Collection, id string, dst any) error {
	var doc bson.M
	err := s.db.Collection(string(coll)).FindOne(ctx, bson.M{idField: id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.ErrNotFound
		}
		return fmt.Errorf("get %s record: %w", coll, err)
	}
	return store.Decode(stripInternal(doc), dst)
}

// FindFirst implements store.Store.
func (s *Store) FindFirst(ctx context.Context, coll store.Collection, field, value string, dst any) error {
	opts := options.FindOne().SetSort(bson.D{{Key: orderField, Value: 1}})

	var doc bson.M
	err := s.db.Collection(string(coll)).FindOne(ctx, bson.M{field: value}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.ErrNotFound
		}
		return fmt.Errorf("find %s record by %s: %w", coll, field, err)
	}
	return store.Decode(stripInternal(doc), dst)
}

// Insert implements store.Store.
func (s *Store) Insert(ctx context.Context, coll store.Collection, id string, doc any) error {
	m, err := store.ToDocument(doc)
	if err != nil {
		return err
	}
	seq, err := s.nextSeq(ctx, coll)
	if err != nil {
		return err
	}
	m[idField] = id
	m[orderField] = seq

	if _, err := s.db.Collection(string(coll)).InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateID
		}
		return fmt.Errorf("insert %s record: %w", coll, err)
	}
	return nil
}

// nextSeq atomically increments the collection's counter. Every process
// shares the same counter, so insertion order never depends on wall clocks.
func (s *Store) nextSeq(ctx context.Context, coll store.Collection) (int64, error) {
	filter, update := seqCounterUpdate(coll)
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	if err := s.db.Collection(countersCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return 0, fmt.Errorf("allocate %s sequence: %w", coll, err)
	}
	return counter.Seq, nil
}

func seqCounterUpdate(coll store.Collection) (bson.M, bson.M) {
	return bson.M{idField: string(coll)}, bson.M{"$inc": bson.M{"seq": int64(1)}}
}

// Patch implements store.Store. The update is a single $set on one document.
func (s *Store) Patch(ctx context.Context, coll store.Collection, id string, fields map[string]any) error {
	set, err := store.ToDocument(fields)
	if err != nil {
		return err
	}
	delete(set, idField)
	delete(set, orderField)

	result, err := s.db.Collection(string(coll)).UpdateOne(ctx, bson.M{idField: id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("patch %s record: %w", coll, err)
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListAll implements store.Store.
func (s *Store) ListAll(ctx context.Context, coll store.Collection, dst any) error {
	opts := options.Find().SetSort(bson.D{{Key: orderField, Value: 1}})
	cursor, err := s.db.Collection(string(coll)).Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("list %s records: %w", coll, err)
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return fmt.Errorf("decode %s records: %w", coll, err)
	}
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		out = append(out, stripInternal(doc))
	}
	return store.Decode(out, dst)
}

func stripInternal(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == idField || k == orderField {
			continue
		}
		out[k] = v
	}
	return out
}

var _ store.Store = (*Store)(nil)
