package history

import (
	"fmt"
	"slices"
)

// Log is an append-only sequence of serialized change records.
type Log interface {
	// Append stores data and returns its sequence number. Sequence numbers
	// increase strictly, including across Reset.
	Append(data []byte) (uint64, error)

	// Get returns the data stored under seq.
	Get(seq uint64) ([]byte, error)

	// Delete removes the records stored under seqs. Unknown sequence
	// numbers are ignored.
	Delete(seqs ...uint64) error

	// Reset discards every stored record.
	Reset() error

	Close() error
}

// MemoryLog is a Log held in memory.
type MemoryLog struct {
	next    uint64
	records map[uint64][]byte
}

// NewMemoryLog returns an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{next: 1, records: map[uint64][]byte{}}
}

func (m *MemoryLog) Append(data []byte) (uint64, error) {
	seq := m.next
	m.next++
	m.records[seq] = slices.Clone(data)
	return seq, nil
}

func (m *MemoryLog) Get(seq uint64) ([]byte, error) {
	data, ok := m.records[seq]
	if !ok {
		return nil, fmt.Errorf("log record %d not found", seq)
	}
	return data, nil
}

func (m *MemoryLog) Delete(seqs ...uint64) error {
	for _, seq := range seqs {
		delete(m.records, seq)
	}
	return nil
}

func (m *MemoryLog) Reset() error {
	m.records = map[uint64][]byte{}
	return nil
}

// Len returns the number of stored records.
func (m *MemoryLog) Len() int {
	return len(m.records)
}

func (m *MemoryLog) Close() error {
	return nil
}
