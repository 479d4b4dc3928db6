package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cusspwk/cuss/internal/model"
)

const transactionsCollection = "transactions"

// TransactionRepository stores submitted bookings as MongoDB documents.
// Documents are schemaless: extra form fields are stored inline.
type TransactionRepository struct {
	coll *mongo.Collection
}

// NewTransactionRepository creates a repository over db's transactions collection.
func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{coll: db.Collection(transactionsCollection)}
}

// TransactionFilter narrows a listing. Zero values match everything.
type TransactionFilter struct {
	Service string
	From    time.Time
	To      time.Time
	Limit   int64
	Offset  int64
}

func (f TransactionFilter) query() bson.M {
	q := bson.M{}
	if f.Service != "" {
		q["service"] = f.Service
	}
	created := bson.M{}
	if !f.From.IsZero() {
		created["$gte"] = f.From
	}
	if !f.To.IsZero() {
		created["$lt"] = f.To
	}
	if len(created) > 0 {
		q["createdAt"] = created
	}
	return q
}

// EnsureIndexes creates the indexes used by the admin listing.
func (r *TransactionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "service", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create transaction indexes: %w", err)
	}
	return nil
}

// Insert stores t. The booking reference is the document _id, so a
// reference collision surfaces as ErrDuplicate.
func (r *TransactionRepository) Insert(ctx context.Context, t *model.Transaction) error {
	_, err := r.coll.InsertOne(ctx, t)
	return wrapErr("insert transaction", err)
}

// Get fetches a transaction by booking reference.
func (r *TransactionRepository) Get(ctx context.Context, id string) (*model.Transaction, error) {
	var t model.Transaction
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, wrapErr("get transaction", err)
	}
	return &t, nil
}

// List returns matching transactions, newest first, and the total count.
func (r *TransactionRepository) List(ctx context.Context, f TransactionFilter) ([]model.Transaction, int64, error) {
	q := f.query()

	total, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, wrapErr("count transactions", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	if f.Offset > 0 {
		opts.SetSkip(f.Offset)
	}

	cursor, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, wrapErr("list transactions", err)
	}
	defer cursor.Close(ctx)

	out := make([]model.Transaction, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, wrapErr("decode transactions", err)
	}
	return out, total, nil
}

// Delete removes a transaction by booking reference.
func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapErr("delete transaction", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete transaction: %w", ErrNotFound)
	}
	return nil
}
