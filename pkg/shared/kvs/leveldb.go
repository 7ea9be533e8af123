package kvs

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	lverrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBStore persists entries on disk, so a generation cache survives
// restarts of the dev server and repeated builds on one machine.
type LevelDBStore struct {
	db        *leveldb.DB
	path      string
	writeOpts *opt.WriteOptions
	mu        sync.RWMutex
	closed    bool
}

// NewLevelDBStore opens (or creates) the database described by cfg
func NewLevelDBStore(namespace string, cfg LevelDBConfig) (*LevelDBStore, error) {
	dbPath := cfg.Path
	if dbPath == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = os.TempDir()
		}

		dirName := "svgiconfont"
		if namespace != "" {
			dirName += "-" + sanitizeDirName(namespace)
		}
		dbPath = filepath.Join(cacheDir, dirName)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("kvs/leveldb: failed to create directory: %w", err)
	}

	db, err := leveldb.OpenFile(dbPath, &opt.Options{Compression: opt.SnappyCompression})
	if err != nil {
		var corrupted *lverrors.ErrCorrupted
		if errors.As(err, &corrupted) {
			db, err = leveldb.RecoverFile(dbPath, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("kvs/leveldb: failed to open database at %s: %w", dbPath, err)
		}
	}

	return &LevelDBStore{
		db:        db,
		path:      dbPath,
		writeOpts: &opt.WriteOptions{Sync: cfg.SyncWrites},
	}, nil
}

func sanitizeDirName(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, s)
}

// Path returns the database directory
func (l *LevelDBStore) Path() string {
	return l.path
}

// encodeValue prefixes value with its expiry as unix nanoseconds (0 = none)
func encodeValue(value []byte, ttl time.Duration) []byte {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}

	encoded := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(encoded[:8], uint64(expiresAt))
	copy(encoded[8:], value)
	return encoded
}

// decodeValue reports the value and whether it has expired
func decodeValue(encoded []byte) ([]byte, bool, error) {
	if len(encoded) < 8 {
		return nil, false, fmt.Errorf("kvs/leveldb: invalid encoded value (too short)")
	}

	expiresAt := int64(binary.BigEndian.Uint64(encoded[:8]))
	if expiresAt > 0 && time.Now().UnixNano() > expiresAt {
		return nil, true, nil
	}
	return encoded[8:], false, nil
}

func (l *LevelDBStore) isClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

// Get retrieves a value; expired entries are deleted on read
func (l *LevelDBStore) Get(ctx context.Context, key string) ([]byte, error) {
	if l.isClosed() {
		return nil, ErrClosed
	}

	encoded, err := l.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kvs/leveldb: get failed: %w", err)
	}

	value, expired, err := decodeValue(encoded)
	if err != nil {
		return nil, err
	}
	if expired {
		_ = l.db.Delete([]byte(key), l.writeOpts)
		return nil, ErrNotFound
	}
	return value, nil
}

// Set stores a value with optional TTL
func (l *LevelDBStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if l.isClosed() {
		return ErrClosed
	}

	if err := l.db.Put([]byte(key), encodeValue(value, ttl), l.writeOpts); err != nil {
		return fmt.Errorf("kvs/leveldb: set failed: %w", err)
	}
	return nil
}

// Delete removes a key
func (l *LevelDBStore) Delete(ctx context.Context, key string) error {
	if l.isClosed() {
		return ErrClosed
	}

	if err := l.db.Delete([]byte(key), l.writeOpts); err != nil && !errors.Is(err, leveldb.ErrNotFound) {
		return fmt.Errorf("kvs/leveldb: delete failed: %w", err)
	}
	return nil
}

// Close closes the database
func (l *LevelDBStore) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.closed = true
	l.mu.Unlock()

	if err := l.db.Close(); err != nil {
		return fmt.Errorf("kvs/leveldb: close failed: %w", err)
	}
	return nil
}
