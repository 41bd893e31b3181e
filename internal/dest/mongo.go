package dest

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/drivamotors/tidesync/internal/schema"
)

// MongoWriter implements Writer for a MongoDB destination. Each replicated
// table maps to a collection of the configured database; rows become
// documents whose fields follow the snapshot's column order (bson.D keeps
// field order, so column fidelity survives the document model).
type MongoWriter struct {
	connStr  string
	database string
	client   *mongo.Client
}

// NewMongoWriter creates a new MongoDB writer. The transactional insert mode
// is not supported here: multi-document transactions need a replica set and
// would change the append-only contract this writer promises.
func NewMongoWriter(connStr, database string, transactional bool) (*MongoWriter, error) {
	if transactional {
		return nil, errors.New("mongodb destination does not support transactional inserts")
	}
	return &MongoWriter{connStr: connStr, database: database}, nil
}

func (w *MongoWriter) Connect(ctx context.Context) error {
	opts := options.Client().ApplyURI(w.connStr)
	client, err := mongo.Connect(opts)
	if err != nil {
		return fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("pinging MongoDB: %w", err)
	}
	w.client = client
	return nil
}

func (w *MongoWriter) MaxPrimaryKey(ctx context.Context, table, pkColumn string) (int64, error) {
	coll := w.client.Database(w.database).Collection(table)

	opts := options.FindOne().
		SetSort(bson.D{{Key: pkColumn, Value: -1}}).
		SetProjection(bson.D{{Key: pkColumn, Value: 1}})

	var doc bson.M
	err := coll.FindOne(ctx, bson.D{}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading watermark for %s: %w", table, err)
	}

	val, ok := doc[pkColumn]
	if !ok {
		return 0, fmt.Errorf("collection %s: field %s missing from newest document", table, pkColumn)
	}
	switch v := val.(type) {
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("collection %s: field %s has non-integer type %T", table, pkColumn, val)
	}
}

func (w *MongoWriter) InsertRows(ctx context.Context, snap schema.Snapshot, rows []schema.Row) (int64, error) {
	if err := snap.Validate(); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	coll := w.client.Database(w.database).Collection(snap.Table)

	var written int64
	for i, row := range rows {
		doc := make(bson.D, len(snap.Columns))
		for j, col := range snap.Columns {
			doc[j] = bson.E{Key: col, Value: row[j]}
		}
		if _, err := coll.InsertOne(ctx, doc); err != nil {
			return written, fmt.Errorf("inserting row %d into %s: %w", i, snap.Table, err)
		}
		written++
	}
	return written, nil
}

func (w *MongoWriter) Close(ctx context.Context) error {
	if w.client != nil {
		return w.client.Disconnect(ctx)
	}
	return nil
}

// compile-time interface check
var _ Writer = (*MongoWriter)(nil)
