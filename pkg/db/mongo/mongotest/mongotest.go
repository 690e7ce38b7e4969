// Package mongotest connects integration tests to a disposable Mongo database.
package mongotest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"calbook/pkg/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	EnvMongoURI       = "TEST_MONGO_URI"
	ConnectionTimeout = 10 * time.Second
)

// Helper owns one test database and drops it on cleanup.
type Helper struct {
	Client   *mongo.Client
	Database *mongo.Database
	DBName   string
}

// New connects to TEST_MONGO_URI and skips the test when it is unset.
func New(t *testing.T) *Helper {
	t.Helper()

	uri := os.Getenv(EnvMongoURI)
	if uri == "" {
		t.Skipf("%s not set, skipping Mongo integration test", EnvMongoURI)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	dbName := fmt.Sprintf("calbook_test_%d", time.Now().UnixNano())
	h := &Helper{Client: client, Database: client.Database(dbName), DBName: dbName}
	t.Cleanup(func() { h.close(t) })
	return h
}

// Config returns a service config bound to the helper's database.
func (h *Helper) Config(serviceName string) *config.Config {
	cfg := config.FromViper(config.NewViper(), serviceName)
	cfg.Client.Mongo = h.Client
	cfg.MongoDatabaseName = h.DBName
	return cfg
}

// Insert writes docs into collection and returns their ids as hex strings.
func (h *Helper) Insert(t *testing.T, collection string, docs ...any) []string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := h.Database.Collection(collection).InsertMany(ctx, docs)
	if err != nil {
		t.Fatalf("failed to insert into %s: %v", collection, err)
	}

	ids := make([]string, 0, len(res.InsertedIDs))
	for _, id := range res.InsertedIDs {
		switch v := id.(type) {
		case string:
			ids = append(ids, v)
		case interface{ Hex() string }:
			ids = append(ids, v.Hex())
		default:
			t.Fatalf("unexpected inserted id type %T", id)
		}
	}
	return ids
}

// CountDocuments returns the number of documents in a collection.
func (h *Helper) CountDocuments(t *testing.T, collection string) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := h.Database.Collection(collection).CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("failed to count documents in %s: %v", collection, err)
	}
	return count
}

func (h *Helper) close(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.Database.Drop(ctx); err != nil {
		t.Logf("warning: failed to drop %s: %v", h.DBName, err)
	}
	if err := h.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}
