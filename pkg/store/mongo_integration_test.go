//go:build integration

package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("GRIDENGINE_TEST_MONGO")
	if uri == "" {
		t.Skip("GRIDENGINE_TEST_MONGO not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := NewMongoStore(ctx, MongoConfig{
		URI:        uri,
		Database:   "gridengine_test",
		Collection: fmt.Sprintf("layouts_%d", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("NewMongoStore() error: %v", err)
	}
	defer func() {
		_ = s.coll.Drop(context.Background())
		s.Close()
	}()

	testStoreContract(t, s)
	testStoreExpiry(t, s)
}
