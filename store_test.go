package main

import "testing"

func TestMemStoreSaveLoadRoundTrip(t *testing.T) {
	store := NewMemStore()
	genesis := NewGenesisBlock(1)
	if err := store.SaveChain([]*Block{genesis}); err != nil {
		t.Fatalf("SaveChain: %v", err)
	}
	loaded, err := store.LoadChain()
	if err != nil {
		t.Fatalf("LoadChain: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Hash != genesis.Hash {
		t.Fatalf("loaded chain does not match saved chain")
	}
}

func TestBadgerStoreSaveLoadRoundTrip(t *testing.T) {
	store, err := NewBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	defer store.(*badgerStore).Close()

	genesis := NewGenesisBlock(1)
	block1 := NewCandidateBlock(genesis.Hash, "miner", sampleTxs(1), 0, 1)

	if err := store.SaveChain([]*Block{genesis, block1}); err != nil {
		t.Fatalf("SaveChain: %v", err)
	}

	loaded, err := store.LoadChain()
	if err != nil {
		t.Fatalf("LoadChain: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(loaded))
	}
	if loaded[0].Hash != genesis.Hash || loaded[1].Hash != block1.Hash {
		t.Fatalf("loaded blocks do not match saved blocks")
	}
}
