package main

import (
	"encoding/json"
	"fmt"
	"os"

	badger "github.com/dgraph-io/badger/v3"
)

// BlockStore persists the accepted chain. The CORE chain state machine
// treats persistence as an external collaborator (on-disk formats are
// out of scope) and only depends on this interface; memStore
// satisfies it for tests, badgerStore satisfies it for the
// long-running node process.
type BlockStore interface {
	SaveChain(blocks []*Block) error
	LoadChain() ([]*Block, error)
}

// memStore is an in-memory BlockStore, used by default so the chain
// state machine and its tests never depend on a disk format.
type memStore struct {
	blocks []*Block
}

// NewMemStore returns a BlockStore that keeps the chain resident only.
func NewMemStore() BlockStore {
	return &memStore{}
}

func (s *memStore) SaveChain(blocks []*Block) error {
	s.blocks = append([]*Block(nil), blocks...)
	return nil
}

func (s *memStore) LoadChain() ([]*Block, error) {
	return append([]*Block(nil), s.blocks...), nil
}

// badgerStore persists the chain as one JSON-encoded blob per block,
// keyed by height, in a badger/v3 database.
type badgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a badger database at path for
// chain persistence.
func NewBadgerStore(path string) (BlockStore, error) {
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return nil, &IOError{Reason: "create chain data directory", Err: err}
	}
	opts := badgerOptions(path)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, &IOError{Reason: "open chain database", Err: err}
	}
	return &badgerStore{db: db}, nil
}

func badgerOptions(path string) badger.Options {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.ValueLogFileSize = 16 << 20
	opts.MemTableSize = 8 << 20
	opts.BlockCacheSize = 1 << 20
	opts.NumVersionsToKeep = 1
	opts.VerifyValueChecksum = true
	opts.DetectConflicts = true
	return opts
}

func blockKey(height int) []byte {
	return []byte(fmt.Sprintf("block:%010d", height))
}

func (s *badgerStore) SaveChain(blocks []*Block) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for height, block := range blocks {
			data, err := json.Marshal(block)
			if err != nil {
				return err
			}
			if err := txn.Set(blockKey(height), data); err != nil {
				return err
			}
		}
		return txn.Set([]byte("height"), []byte(fmt.Sprintf("%d", len(blocks))))
	})
}

func (s *badgerStore) LoadChain() ([]*Block, error) {
	var blocks []*Block
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("block:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var block Block
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &block)
			})
			if err != nil {
				return err
			}
			blocks = append(blocks, &block)
		}
		return nil
	})
	if err != nil {
		return nil, &IOError{Reason: "load chain from database", Err: err}
	}
	return blocks, nil
}

// Close releases the underlying badger database handle.
func (s *badgerStore) Close() error {
	return s.db.Close()
}
