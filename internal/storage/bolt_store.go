package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Layout: root bucket "seen_images" holds one nested bucket per source id;
// each image key maps to a 16-byte record of marked-at and expires-at unix
// seconds, both big-endian.
const (
	rootBucket  = "seen_images"
	recordBytes = 16
)

var errRootBucketMissing = errors.New("seen images bucket missing")

type boltStore struct {
	db              *bolt.DB
	imageTTL        time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	sweepMu   sync.Mutex
	lastSweep atomic.Int64
}

func openBolt(path string, opts Options) (Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(rootBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	s := &boltStore{
		db:              db,
		imageTTL:        opts.ImageTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	s.lastSweep.Store(s.now().Unix())
	return s, nil
}

func (s *boltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SeenImage reports whether imageID was marked for sourceID and has not
// expired. Lookups never write; expired records are removed by the sweep.
func (s *boltStore) SeenImage(sourceID, imageID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	now := s.now()
	if err := s.maybeSweep(now); err != nil {
		return false, err
	}

	var seen bool
	err := s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(rootBucket))
		if root == nil {
			return errRootBucketMissing
		}
		src := root.Bucket([]byte(sourceID))
		if src == nil {
			return nil
		}
		_, expires, ok := decodeRecord(src.Get([]byte(imageID)))
		seen = ok && expires.After(now)
		return nil
	})
	return seen, err
}

// MarkImage records imageID under sourceID with a fresh expiry.
func (s *boltStore) MarkImage(sourceID, imageID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	if sourceID == "" || imageID == "" {
		return fmt.Errorf("mark image: source id and image id are required")
	}
	now := s.now()
	if err := s.maybeSweep(now); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(rootBucket))
		if root == nil {
			return errRootBucketMissing
		}
		src, err := root.CreateBucketIfNotExists([]byte(sourceID))
		if err != nil {
			return fmt.Errorf("source bucket %q: %w", sourceID, err)
		}
		return src.Put([]byte(imageID), encodeRecord(now, now.Add(s.imageTTL)))
	})
}

// maybeSweep deletes expired records at most once per cleanupInterval and
// drops source buckets left empty.
func (s *boltStore) maybeSweep(now time.Time) error {
	if now.Sub(time.Unix(s.lastSweep.Load(), 0)) < s.cleanupInterval {
		return nil
	}

	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	if now.Sub(time.Unix(s.lastSweep.Load(), 0)) < s.cleanupInterval {
		return nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(rootBucket))
		if root == nil {
			return errRootBucketMissing
		}

		var names [][]byte
		if err := root.ForEachBucket(func(name []byte) error {
			names = append(names, append([]byte(nil), name...))
			return nil
		}); err != nil {
			return err
		}

		for _, name := range names {
			src := root.Bucket(name)
			var expired [][]byte
			c := src.Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				if _, expires, ok := decodeRecord(v); !ok || !expires.After(now) {
					expired = append(expired, append([]byte(nil), k...))
				}
			}
			for _, k := range expired {
				if err := src.Delete(k); err != nil {
					return err
				}
			}
			if k, _ := src.Cursor().First(); k == nil {
				if err := root.DeleteBucket(name); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		s.lastSweep.Store(now.Unix())
	}
	return err
}

func encodeRecord(marked, expires time.Time) []byte {
	buf := make([]byte, recordBytes)
	binary.BigEndian.PutUint64(buf[:8], uint64(marked.Unix()))
	binary.BigEndian.PutUint64(buf[8:], uint64(expires.Unix()))
	return buf
}

func decodeRecord(value []byte) (marked, expires time.Time, ok bool) {
	if len(value) != recordBytes {
		return time.Time{}, time.Time{}, false
	}
	exp := int64(binary.BigEndian.Uint64(value[8:]))
	if exp <= 0 {
		return time.Time{}, time.Time{}, false
	}
	return time.Unix(int64(binary.BigEndian.Uint64(value[:8])), 0), time.Unix(exp, 0), true
}
