package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Node wires together the chain state machine, the gossip endpoint,
// and an optional mining loop — the long-running process assembled
// from the core components.
type Node struct {
	cfg   *Config
	chain *Chain
	store BlockStore
	gsp   *GossipNode
	log   *zap.SugaredLogger

	minerAddress string
	mining       bool
}

// NewNode assembles a Node from configuration, opening persistent
// storage under cfg.DataDir.
func NewNode(cfg *Config, log *zap.SugaredLogger) (*Node, error) {
	store, err := NewBadgerStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	chain, err := NewChain(cfg.Difficulty, store, log)
	if err != nil {
		return nil, err
	}
	gsp := NewGossipNode(cfg.ListenHost, cfg.ListenPort, chain, log)
	return &Node{cfg: cfg, chain: chain, store: store, gsp: gsp, log: log}, nil
}

// Chain exposes the underlying chain state machine.
func (n *Node) Chain() *Chain { return n.chain }

// Gossip exposes the underlying gossip endpoint.
func (n *Node) Gossip() *GossipNode { return n.gsp }

// Start brings up the gossip endpoint and, if minerAddress is set, a
// background mining loop that mines whenever the mempool is non-empty.
func (n *Node) Start(ctx context.Context, minerAddress string) error {
	if err := n.gsp.Start(ctx); err != nil {
		return err
	}
	n.minerAddress = minerAddress
	if minerAddress != "" {
		n.mining = true
		go n.miningLoop(ctx)
	}
	return nil
}

// Stop halts gossip and mining, and releases the chain's storage
// handle if it owns one (the badger-backed store).
func (n *Node) Stop() {
	n.gsp.Stop()
	n.mining = false
	if closer, ok := n.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil && n.log != nil {
			n.log.Warnw("error closing chain store", "error", err)
		}
	}
}

func (n *Node) miningLoop(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !n.mining {
				return
			}
			block, ok := n.chain.Mine(ctx, n.minerAddress)
			if ok {
				if n.log != nil {
					n.log.Infow("mined block", "height", n.chain.Height()-1, "hash", block.Hash)
				}
				n.gsp.broadcastStatus()
			}
		}
	}
}

// Connect sends a HELLO to a bootstrap peer, initiating peer
// admission and subsequent status/block sync on both sides.
func (n *Node) Connect(host string, port int) {
	n.gsp.SayHello(host, port)
}
