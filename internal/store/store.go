package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/vidcat/internal/domain"
)

// Bucket names
var (
	bucketHistory = []byte("history")
	bucketState   = []byte("state")
)

const (
	keyLocation = "location"

	// DefaultMaxRecords bounds the stored history
	DefaultMaxRecords = 200
)

// HistoryDB implements domain.HistoryStore using BoltDB.
type HistoryDB struct {
	db         *bolt.DB
	maxRecords int

	mu sync.RWMutex // Protects memory cache

	// Write-through cache; the only storage in memory-only mode
	cache map[string][]byte
}

// NewHistoryDB opens the database for catalogURL under baseCacheDir.
// An empty baseCacheDir keeps everything in memory.
func NewHistoryDB(baseCacheDir, catalogURL string) (*HistoryDB, error) {
	s := &HistoryDB{cache: make(map[string][]byte), maxRecords: DefaultMaxRecords}
	if baseCacheDir == "" {
		return s, nil
	}

	dir := baseCacheDir
	if catalogURL != "" {
		dir = filepath.Join(baseCacheDir, hashCatalogURL(catalogURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(filepath.Join(dir, "vidcat.db"), 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketHistory, bucketState} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

// hashCatalogURL keeps one database per catalog API
func hashCatalogURL(catalogURL string) string {
	normalized := strings.TrimRight(strings.ToLower(catalogURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *HistoryDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func cacheKey(bucket []byte, key string) string {
	return string(bucket) + ":" + key
}

func (s *HistoryDB) get(bucket []byte, key string, dest interface{}) bool {
	s.mu.RLock()
	if data, ok := s.cache[cacheKey(bucket, key)]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey(bucket, key)] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *HistoryDB) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[cacheKey(bucket, key)] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *HistoryDB) delete(bucket []byte, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.cache, cacheKey(bucket, k))
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

// values returns every raw value in bucket
func (s *HistoryDB) values(bucket []byte) ([][]byte, error) {
	var out [][]byte
	if s.db == nil {
		prefix := string(bucket) + ":"
		s.mu.RLock()
		for k, v := range s.cache {
			if strings.HasPrefix(k, prefix) {
				out = append(out, v)
			}
		}
		s.mu.RUnlock()
		return out, nil
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(_, v []byte) error {
			data := make([]byte, len(v))
			copy(data, v)
			out = append(out, data)
			return nil
		})
	})
	return out, err
}

// === History ===

// RecordPlay stores rec, replacing any earlier play of the same key,
// and drops the oldest records beyond the limit.
func (s *HistoryDB) RecordPlay(rec domain.PlayRecord) error {
	if err := s.set(bucketHistory, rec.Key, rec); err != nil {
		return err
	}

	recs, err := s.allPlays()
	if err != nil {
		return err
	}
	if len(recs) <= s.maxRecords {
		return nil
	}
	var stale []string
	for _, r := range recs[s.maxRecords:] {
		stale = append(stale, r.Key)
	}
	return s.delete(bucketHistory, stale...)
}

// RecentPlays returns up to limit records, newest first
func (s *HistoryDB) RecentPlays(limit int) ([]domain.PlayRecord, error) {
	recs, err := s.allPlays()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (s *HistoryDB) allPlays() ([]domain.PlayRecord, error) {
	raw, err := s.values(bucketHistory)
	if err != nil {
		return nil, err
	}
	recs := make([]domain.PlayRecord, 0, len(raw))
	for _, data := range raw {
		var r domain.PlayRecord
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		recs = append(recs, r)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].PlayedAt.Equal(recs[j].PlayedAt) {
			return recs[i].Key < recs[j].Key
		}
		return recs[i].PlayedAt.After(recs[j].PlayedAt)
	})
	return recs, nil
}

func (s *HistoryDB) ClearHistory() error {
	recs, err := s.allPlays()
	if err != nil {
		return err
	}
	keys := make([]string, len(recs))
	for i, r := range recs {
		keys[i] = r.Key
	}
	return s.delete(bucketHistory, keys...)
}

// === Location ===

func (s *HistoryDB) SaveLocation(trail []domain.Breadcrumb) error {
	if trail == nil {
		trail = []domain.Breadcrumb{}
	}
	return s.set(bucketState, keyLocation, trail)
}

func (s *HistoryDB) LastLocation() ([]domain.Breadcrumb, bool) {
	var trail []domain.Breadcrumb
	if !s.get(bucketState, keyLocation, &trail) {
		return nil, false
	}
	return trail, true
}
