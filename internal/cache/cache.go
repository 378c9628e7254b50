package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	cacheVersion  = 2
	bucketName    = "lyrics"
	cacheDirName  = "lyroverlay"
	cacheFileName = "lyrics.db"

	// value prefixes
	rawPrefix  = 'j'
	zstdPrefix = 'z'
)

var (
	ErrCacheMiss    = errors.New("cache miss")
	ErrCacheExpired = errors.New("cache expired")
	ErrCacheCorrupt = errors.New("cache corrupt")
)

type LyricEntry struct {
	Version      uint8   `json:"version"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
	SyncOffset   float64 `json:"syncOffset"`
	CreatedAt    int64   `json:"createdAt"`
	ExpiresAt    int64   `json:"expiresAt"`
}

type Options struct {
	Path        string
	TTL         time.Duration
	Compression bool
}

// Store is a bbolt-backed lyric cache with an in-memory front.
type Store struct {
	db          *bolt.DB
	path        string
	ttl         time.Duration
	compression bool

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu       sync.RWMutex
	memCache map[string]*LyricEntry
}

func DefaultPath() (string, error) {
	// xdg cache home takes priority
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, cacheDirName, cacheFileName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".cache", cacheDirName, cacheFileName), nil
}

func Open(opts Options) (*Store, error) {
	path := opts.Path
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cache path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	log.WithFields(log.Fields{
		"component":   "cache",
		"path":        path,
		"compression": opts.Compression,
	}).Debug("lyrics cache opened")

	return &Store{
		db:          db,
		path:        path,
		ttl:         ttl,
		compression: opts.Compression,
		encoder:     encoder,
		decoder:     decoder,
		memCache:    make(map[string]*LyricEntry),
	}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}

func generateKey(artist, title string) string {
	normalized := strings.ToLower(artist) + "|" + strings.ToLower(title)
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:12])
}

func (s *Store) Get(artist, title string) (*LyricEntry, error) {
	if artist == "" || title == "" {
		return nil, ErrCacheMiss
	}

	key := generateKey(artist, title)
	now := time.Now().Unix()

	// check memory cache first
	s.mu.RLock()
	entry, exists := s.memCache[key]
	s.mu.RUnlock()

	if exists {
		if entry.ExpiresAt > now {
			copied := *entry
			return &copied, nil
		}
		s.mu.Lock()
		delete(s.memCache, key)
		s.mu.Unlock()
	}

	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if value != nil {
			raw = append([]byte(nil), value...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrCacheMiss
	}

	entry, err = s.decode(raw)
	if err != nil {
		_ = s.deleteKey(key)
		return nil, err
	}

	if entry.ExpiresAt <= now {
		_ = s.deleteKey(key)
		return nil, ErrCacheExpired
	}

	s.mu.Lock()
	s.memCache[key] = entry
	s.mu.Unlock()

	copied := *entry
	return &copied, nil
}

func (s *Store) Set(artist, title string, entry *LyricEntry) error {
	if artist == "" || title == "" || entry == nil {
		return errors.New("invalid cache entry")
	}

	key := generateKey(artist, title)

	stored := *entry
	now := time.Now().Unix()
	stored.Version = cacheVersion
	stored.CreatedAt = now
	stored.ExpiresAt = now + int64(s.ttl/time.Second)

	raw, err := s.encode(&stored)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), raw)
	})
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	s.mu.Lock()
	s.memCache[key] = &stored
	s.mu.Unlock()

	return nil
}

// SetSyncOffset updates the stored sync offset of an existing entry without
// touching its expiry.
func (s *Store) SetSyncOffset(artist, title string, offset float64) error {
	entry, err := s.Get(artist, title)
	if err != nil {
		return err
	}
	entry.SyncOffset = offset

	raw, err := s.encode(entry)
	if err != nil {
		return err
	}

	key := generateKey(artist, title)
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), raw)
	})
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	s.mu.Lock()
	s.memCache[key] = entry
	s.mu.Unlock()

	return nil
}

func (s *Store) Delete(artist, title string) error {
	if artist == "" || title == "" {
		return errors.New("invalid artist or title")
	}
	return s.deleteKey(generateKey(artist, title))
}

func (s *Store) deleteKey(key string) error {
	s.mu.Lock()
	delete(s.memCache, key)
	s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key))
	})
}

func (s *Store) Clear() error {
	s.mu.Lock()
	s.memCache = make(map[string]*LyricEntry)
	s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
}

// Prune removes expired and undecodable entries and returns how many went.
func (s *Store) Prune() (int, error) {
	now := time.Now().Unix()
	var stale [][]byte

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			entry, err := s.decode(v)
			if err != nil || entry.ExpiresAt <= now {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	if len(stale) == 0 {
		return 0, nil
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	for _, k := range stale {
		delete(s.memCache, string(k))
	}
	s.mu.Unlock()

	return len(stale), nil
}

func (s *Store) Stats() (count int, sizeBytes int64, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			count++
			sizeBytes += int64(len(k) + len(v))
			return nil
		})
	})
	return count, sizeBytes, err
}

func (s *Store) ListAll() ([]*LyricEntry, error) {
	var result []*LyricEntry

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			entry, err := s.decode(v)
			if err != nil {
				return nil
			}
			result = append(result, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Store) encode(entry *LyricEntry) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if !s.compression {
		return append([]byte{rawPrefix}, data...), nil
	}

	out := make([]byte, 1, len(data)/2+1)
	out[0] = zstdPrefix
	return s.encoder.EncodeAll(data, out), nil
}

func (s *Store) decode(raw []byte) (*LyricEntry, error) {
	if len(raw) < 2 {
		return nil, ErrCacheCorrupt
	}

	data := raw[1:]
	switch raw[0] {
	case rawPrefix:
	case zstdPrefix:
		decoded, err := s.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, ErrCacheCorrupt
		}
		data = decoded
	default:
		return nil, ErrCacheCorrupt
	}

	var entry LyricEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, ErrCacheCorrupt
	}

	// version mismatch means stale format
	if entry.Version != cacheVersion {
		return nil, ErrCacheCorrupt
	}

	return &entry, nil
}
