package badger

import (
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

// Entities are stored as JSON: human-readable when inspecting the database
// and tolerant to added fields.

func encode(kind string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", kind, err)
	}
	return data, nil
}

// getJSON loads key into out. Missing keys map to ErrNotFound with msg.
func getJSON(txn *badger.Txn, key []byte, out any, msg string, args ...any) error {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return filetree.NewError(filetree.ErrNotFound, "", msg, args...)
	}
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", key, err)
	}

	return item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, out); err != nil {
			return fmt.Errorf("failed to unmarshal %q: %w", key, err)
		}
		return nil
	})
}

// getString loads an index entry.
func getString(txn *badger.Txn, key []byte) (string, bool, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}

	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return string(val), true, nil
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return true, nil
}

func decode(data []byte, kind string, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", kind, err)
	}
	return nil
}
