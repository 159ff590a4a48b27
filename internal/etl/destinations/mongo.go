package destinations

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"indicadores/internal/etl"
)

// ── MongoDB Destination ────────────────────────────────────
// One collection per sheet, emptied and refilled on every write.

// MongoWriter writes sheets into a MongoDB database.
type MongoWriter struct {
	client *mongo.Client
	dbName string
}

// OpenMongo creates a client for uri. The connection is established lazily.
func OpenMongo(uri, database string) (*MongoWriter, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &MongoWriter{client: client, dbName: database}, nil
}

func (w *MongoWriter) Name() string { return "mongo" }

func (w *MongoWriter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return w.client.Disconnect(ctx)
}

func (w *MongoWriter) Prepare(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := w.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: ping mongo: %v", etl.ErrWrite, err)
	}
	return nil
}

func (w *MongoWriter) Write(ctx context.Context, sheet string, schema *etl.Schema, records []etl.Record) (int, error) {
	coll := w.client.Database(w.dbName).Collection(sheet)
	if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
		return 0, fmt.Errorf("%w: %s: clear collection: %v", etl.ErrWrite, sheet, err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	docs := make([]any, len(records))
	for i, rec := range records {
		docs[i] = Document(schema, rec)
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return 0, fmt.Errorf("%w: %s: insert: %v", etl.ErrWrite, sheet, err)
	}
	return len(records), nil
}

// Document converts a validated record to an ordered BSON document in
// schema field order. The source row index is kept under "row".
func Document(schema *etl.Schema, rec etl.Record) bson.D {
	doc := make(bson.D, 0, len(schema.Fields)+1)
	doc = append(doc, bson.E{Key: "row", Value: rec.Index})
	for _, f := range schema.Fields {
		doc = append(doc, bson.E{Key: f.Name, Value: rec.Data[f.Name]})
	}
	return doc
}
