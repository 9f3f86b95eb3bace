package config

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/dittostore/pkg/store/filetree"
	"github.com/marmos91/dittostore/pkg/store/filetree/badger"
	"github.com/marmos91/dittostore/pkg/store/filetree/bolt"
	"github.com/marmos91/dittostore/pkg/store/filetree/memory"
)

// CreateStore creates a file tree store based on configuration.
//
// This factory function uses the Type field to determine which store implementation
// to create, then decodes the type-specific configuration from the corresponding
// map and passes it to the store's constructor.
//
// Supported types:
//   - "memory": Uses pkg/store/filetree/memory (ephemeral)
//   - "badger": Uses pkg/store/filetree/badger (BadgerDB, persistent)
//   - "bolt": Uses pkg/store/filetree/bolt (bbolt single file, persistent)
func CreateStore(ctx context.Context, cfg *StoreConfig) (filetree.Store, error) {
	switch cfg.Type {
	case "memory":
		return createMemoryStore(ctx)
	case "badger":
		return createBadgerStore(ctx, cfg.Badger)
	case "bolt":
		return createBoltStore(ctx, cfg.Bolt)
	default:
		return nil, fmt.Errorf("unknown store type: %q (supported: memory, badger, bolt)", cfg.Type)
	}
}

func createMemoryStore(ctx context.Context) (filetree.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return memory.NewMemoryStore(), nil
}

// createBadgerStore creates a BadgerDB-based persistent store.
func createBadgerStore(ctx context.Context, options map[string]any) (filetree.Store, error) {
	var storeCfg badger.BadgerStoreConfig
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger store options: %w", err)
	}

	if storeCfg.DBPath == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger store: db_path is required")
	}

	store, err := badger.NewBadgerStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger store: %w", err)
	}
	return store, nil
}

// createBoltStore creates a bbolt-based persistent store.
func createBoltStore(ctx context.Context, options map[string]any) (filetree.Store, error) {
	var storeCfg bolt.BoltStoreConfig
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode bolt store options: %w", err)
	}

	if storeCfg.Path == "" {
		return nil, fmt.Errorf("bolt store: path is required")
	}

	store, err := bolt.NewBoltStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create bolt store: %w", err)
	}
	return store, nil
}

// decodeOptions decodes a type-specific option map. Values from YAML or the
// environment arrive as strings, so durations and numbers are converted.
func decodeOptions(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(options)
}
