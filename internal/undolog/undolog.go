// Package undolog stores serialized change records in a bbolt file.
//
// The log backs the undo/redo journal for one session: opening it discards
// whatever a previous session left behind.
package undolog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var changesBucket = []byte("changes")

// ErrNotFound is returned by Get for an unknown sequence number.
var ErrNotFound = errors.New("undo log record not found")

// Options tune the underlying bbolt file.
type Options struct {
	// NoSync skips fsync after each append. Tests set it.
	NoSync bool

	// Timeout bounds the wait for the file lock. Zero means one second.
	Timeout time.Duration
}

// Log is an append-only record log in a bbolt file.
type Log struct {
	db *bbolt.DB
}

// Open opens or creates the log at path and empties it.
func Open(path string, opt Options) (*Log, error) {
	timeout := opt.Timeout
	if timeout == 0 {
		timeout = time.Second
	}
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = timeout
	bopt.NoSync = opt.NoSync
	bopt.NoFreelistSync = true

	db, err := bbolt.Open(path, 0o600, &bopt)
	if err != nil {
		return nil, fmt.Errorf("open undo log: %w", err)
	}
	l := &Log{db: db}
	if err := l.Reset(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func seqKey(seq uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], seq)
	return k[:]
}

// Append stores data under the next sequence number.
func (l *Log) Append(data []byte) (uint64, error) {
	var seq uint64
	err := l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(changesBucket)
		var err error
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), data)
	})
	if err != nil {
		return 0, fmt.Errorf("append undo record: %w", err)
	}
	return seq, nil
}

// Get returns the record stored under seq.
func (l *Log) Get(seq uint64) ([]byte, error) {
	var data []byte
	err := l.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(changesBucket).Get(seqKey(seq))
		if v == nil {
			return ErrNotFound
		}
		// Values are only valid for the life of the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("undo record %d: %w", seq, err)
	}
	return data, nil
}

// Delete removes the records stored under seqs in one bbolt transaction.
func (l *Log) Delete(seqs ...uint64) error {
	if len(seqs) == 0 {
		return nil
	}
	err := l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(changesBucket)
		for _, seq := range seqs {
			if err := b.Delete(seqKey(seq)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete undo records: %w", err)
	}
	return nil
}

// Reset removes every record. Sequence numbers keep increasing.
func (l *Log) Reset() error {
	err := l.db.Update(func(tx *bbolt.Tx) error {
		var seq uint64
		if b := tx.Bucket(changesBucket); b != nil {
			seq = b.Sequence()
			if err := tx.DeleteBucket(changesBucket); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(changesBucket)
		if err != nil {
			return err
		}
		return b.SetSequence(seq)
	})
	if err != nil {
		return fmt.Errorf("reset undo log: %w", err)
	}
	return nil
}

// Len returns the number of stored records.
func (l *Log) Len() (int, error) {
	var n int
	err := l.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(changesBucket).Stats().KeyN
		return nil
	})
	return n, err
}

// Path returns the file backing the log.
func (l *Log) Path() string {
	return l.db.Path()
}

// Close releases the file.
func (l *Log) Close() error {
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("close undo log: %w", err)
	}
	return nil
}
