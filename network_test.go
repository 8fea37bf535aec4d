package main

import (
	"context"
	"testing"
	"time"
)

func newTestGossipNode(t *testing.T, port int) (*GossipNode, *Chain) {
	t.Helper()
	chain, err := NewChain(1, NewMemStore(), nil)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	return NewGossipNode("127.0.0.1", port, chain, nil), chain
}

func TestGossipHelloAdmitsPeerBothWays(t *testing.T) {
	nodeA, _ := newTestGossipNode(t, 19401)
	nodeB, _ := newTestGossipNode(t, 19402)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := nodeA.Start(ctx); err != nil {
		t.Fatalf("nodeA.Start: %v", err)
	}
	defer nodeA.Stop()
	if err := nodeB.Start(ctx); err != nil {
		t.Fatalf("nodeB.Start: %v", err)
	}
	defer nodeB.Stop()

	nodeA.SayHello("127.0.0.1", 19402)
	nodeB.SayHello("127.0.0.1", 19401)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if nodeA.PeerCount() == 1 && nodeB.PeerCount() == 1 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if nodeA.PeerCount() != 1 {
		t.Fatalf("expected nodeA to have admitted nodeB, got %d peers", nodeA.PeerCount())
	}
	if nodeB.PeerCount() != 1 {
		t.Fatalf("expected nodeB to have admitted nodeA, got %d peers", nodeB.PeerCount())
	}
}

func TestGossipMaxPeersAdmissionCap(t *testing.T) {
	node, _ := newTestGossipNode(t, 19403)
	for i := 0; i < maxPeers; i++ {
		node.peers[string(rune('a'+i))] = &Peer{NodeID: string(rune('a' + i)), LastSeen: time.Now()}
	}
	if node.PeerCount() != maxPeers {
		t.Fatalf("setup failed: expected %d peers, got %d", maxPeers, node.PeerCount())
	}

	msg := &envelope{Type: "HELLO", NodeID: "overflow-peer"}
	node.handleHello(msg, nil)
	if node.PeerCount() != maxPeers {
		t.Fatalf("expected peer table to stay capped at %d, got %d", maxPeers, node.PeerCount())
	}
}

func TestGossipAlreadySeenDeduplicates(t *testing.T) {
	node, _ := newTestGossipNode(t, 19404)
	if node.alreadySeen("msg-1") {
		t.Fatalf("first observation of a message id should not be reported as already seen")
	}
	if !node.alreadySeen("msg-1") {
		t.Fatalf("second observation of the same message id should be reported as already seen")
	}
}

func TestGossipEvictStalePeers(t *testing.T) {
	node, _ := newTestGossipNode(t, 19405)
	node.peers["stale"] = &Peer{NodeID: "stale", LastSeen: time.Now().Add(-2 * peerTimeout)}
	node.peers["fresh"] = &Peer{NodeID: "fresh", LastSeen: time.Now()}

	node.evictStalePeers()

	if node.PeerCount() != 1 {
		t.Fatalf("expected exactly one peer to survive eviction, got %d", node.PeerCount())
	}
	if _, ok := node.peers["fresh"]; !ok {
		t.Fatalf("expected the fresh peer to survive eviction")
	}
}
