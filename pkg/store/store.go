// Package store persists interactive command history in a bolt
// database, one entry per evaluated input line, keyed by a
// monotonically increasing sequence number.
package store

import (
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketCmd = []byte("cmd")

// Store is an open history database. It is safe for concurrent use.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{
		Timeout: time.Second,
	})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCmd)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddCmd appends a command line and returns its sequence number.
// Sequence numbers start at 1 and never repeat within one database.
func (s *Store) AddCmd(text string) (int, error) {
	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCmd)
		var err error
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), []byte(text))
	})
	return int(seq), err
}

// List returns all stored commands in insertion order.
func (s *Store) List() ([]string, error) {
	var cmds []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCmd).ForEach(func(_, v []byte) error {
			cmds = append(cmds, string(v))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return cmds, nil
}

// Last returns the most recent command, or ok = false when the history
// is empty.
func (s *Store) Last() (cmd string, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		k, v := tx.Bucket(bucketCmd).Cursor().Last()
		if k != nil {
			cmd, ok = string(v), true
		}
		return nil
	})
	return cmd, ok, err
}

// Big-endian keys make the natural bucket order the insertion order.
func marshalSeq(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
