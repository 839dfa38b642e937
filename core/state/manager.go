package state

import (
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"stakevault/storage"
)

// Manager reads and writes ledger records against the backing database.
// Writes accumulate in an overlay until Commit flushes them; Revert discards
// the overlay. One external call maps to one overlay transaction, which gives
// every operation all-or-nothing semantics.
//
// Keys are hashed with keccak256 before hitting the database and values are
// RLP encoded, matching the record layout the rest of the system expects.
//
// Manager is not safe for concurrent use; calls are strictly sequenced by the
// ledger facade.
type Manager struct {
	db      storage.Database
	overlay map[string][]byte
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, overlay: make(map[string][]byte)}
}

func hashKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func (m *Manager) get(key []byte) ([]byte, error) {
	hashed := hashKey(key)
	if value, ok := m.overlay[string(hashed)]; ok {
		return value, nil
	}
	return m.db.Get(hashed)
}

func (m *Manager) put(key, value []byte) {
	m.overlay[string(hashKey(key))] = value
}

// KVPut stores the provided value under the supplied key using RLP encoding.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.put(key, encoded)
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean reports whether the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// Commit flushes the overlay to the backing database.
func (m *Manager) Commit() error {
	for key, value := range m.overlay {
		if err := m.db.Put([]byte(key), value); err != nil {
			return err
		}
	}
	m.overlay = make(map[string][]byte)
	return nil
}

// Revert discards every uncommitted write.
func (m *Manager) Revert() {
	m.overlay = make(map[string][]byte)
}

// Dirty reports whether uncommitted writes are pending.
func (m *Manager) Dirty() bool {
	return len(m.overlay) > 0
}
