package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/roach88/cable/internal/graph"
)

const bucketSources = "sources"

// Cache is a read-through source cache stored in a bbolt file. Entries
// never expire; Invalidate drops one.
type Cache struct {
	db   *bolt.DB
	next graph.Fetcher
}

// OpenCache opens (creating if needed) the cache at path in front of next.
func OpenCache(path string, next graph.Fetcher) (*Cache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open source cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSources))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize source cache: %w", err)
	}
	return &Cache{db: db, next: next}, nil
}

// Close closes the cache file.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Fetch returns the cached text for url, fetching and storing it on a miss.
func (c *Cache) Fetch(ctx context.Context, url string) (string, error) {
	var cached []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketSources)).Get([]byte(url)); v != nil {
			cached = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read source cache: %w", err)
	}
	if cached != nil {
		slog.Debug("source cache hit", "url", url)
		return string(cached), nil
	}

	src, err := c.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSources)).Put([]byte(url), []byte(src))
	})
	if err != nil {
		return "", fmt.Errorf("write source cache: %w", err)
	}
	slog.Debug("source cached", "url", url, "bytes", len(src))
	return src, nil
}

// Invalidate removes url from the cache.
func (c *Cache) Invalidate(url string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSources)).Delete([]byte(url))
	})
}
