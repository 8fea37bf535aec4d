package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	gossipVersion    = "1.0.0"
	maxPeers         = 10
	peerTimeout      = 300 * time.Second
	gossipInterval   = 30 * time.Second
	cleanupInterval  = 60 * time.Second
	maxDatagramBytes = 64 * 1024
)

// Peer is a remote node's bookkeeping record, admitted on HELLO and
// refreshed on any valid message (spec §3/§4.6). Grounded on
// original_source/src/networking/gossip.py's Peer dataclass.
type Peer struct {
	Host     string    `json:"host"`
	Port     int       `json:"port"`
	LastSeen time.Time `json:"last_seen"`
	NodeID   string    `json:"node_id"`
	Version  string    `json:"version"`
	Height   int       `json:"height"`
}

func (p *Peer) addr() string {
	return net.JoinHostPort(p.Host, fmt.Sprintf("%d", p.Port))
}

// envelope is the common shape of every gossip datagram: a type
// discriminator plus the sender's node_id, with type-specific fields
// alongside.
type envelope struct {
	Type    string          `json:"type"`
	NodeID  string          `json:"node_id"`
	Version string          `json:"version,omitempty"`
	Height  int             `json:"height,omitempty"`
	Start   int             `json:"start,omitempty"`
	End     int             `json:"end,omitempty"`
	Blocks  json.RawMessage `json:"blocks,omitempty"`
	Tx      json.RawMessage `json:"transaction,omitempty"`
	MsgID   string          `json:"msg_id,omitempty"`
}

// GossipNode is the UDP-based gossip endpoint reconciling chain state
// across peers: peer table, periodic status broadcast, peer aging,
// and message dispatch. Encrypted peer transport and NAT traversal
// are out of scope.
type GossipNode struct {
	host   string
	port   int
	nodeID string
	chain  *Chain
	conn   *net.UDPConn
	log    *zap.SugaredLogger

	mu      sync.Mutex
	peers   map[string]*Peer
	seen    map[string]struct{}
	running bool

	cancel context.CancelFunc
}

// NewGossipNode constructs a gossip endpoint bound to host:port serving
// the given chain. Call Start to begin listening.
func NewGossipNode(host string, port int, chain *Chain, log *zap.SugaredLogger) *GossipNode {
	return &GossipNode{
		host:   host,
		port:   port,
		nodeID: uuid.NewString(),
		chain:  chain,
		log:    log,
		peers:  make(map[string]*Peer),
		seen:   make(map[string]struct{}),
	}
}

// Start opens the UDP socket and launches the receive loop plus the
// periodic gossip and cleanup background tasks. Idempotent: calling
// Start twice while already running is a no-op.
func (n *GossipNode) Start(ctx context.Context) error {
	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return nil
	}
	addr := &net.UDPAddr{IP: net.ParseIP(n.host), Port: n.port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		n.mu.Unlock()
		return &IOError{Reason: "listen on UDP socket", Err: err}
	}
	n.conn = conn
	n.running = true
	runCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.mu.Unlock()

	go n.receiveLoop(runCtx)
	go n.periodicGossip(runCtx)
	go n.cleanupPeers(runCtx)

	if n.log != nil {
		n.log.Infow("gossip node started", "host", n.host, "port", n.port, "node_id", n.nodeID)
	}
	return nil
}

// Stop closes the UDP endpoint and signals background tasks to exit at
// their next iteration (spec §5: "set running=false, close the UDP
// endpoint, let periodic tasks observe the flag").
func (n *GossipNode) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.running {
		return
	}
	n.running = false
	if n.cancel != nil {
		n.cancel()
	}
	if n.conn != nil {
		n.conn.Close()
	}
	if n.log != nil {
		n.log.Infow("gossip node stopped")
	}
}

func (n *GossipNode) receiveLoop(ctx context.Context) {
	buf := make([]byte, maxDatagramBytes)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		size, addr, err := n.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if n.log != nil {
				n.log.Warnw("udp read error", "error", err)
			}
			continue
		}
		payload := append([]byte(nil), buf[:size]...)
		go n.handleMessage(payload, addr)
	}
}

func (n *GossipNode) handleMessage(data []byte, addr *net.UDPAddr) {
	if len(data) > maxDatagramBytes {
		if n.log != nil {
			n.log.Warnw("oversized datagram dropped", "bytes", len(data))
		}
		return
	}

	var msg envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		if n.log != nil {
			n.log.Warnw("malformed gossip JSON", "error", err)
		}
		return
	}

	switch msg.Type {
	case "HELLO":
		n.handleHello(&msg, addr)
	case "STATUS":
		n.handleStatus(&msg, addr)
	case "GET_BLOCKS":
		n.handleGetBlocks(&msg, addr)
	case "BLOCKS":
		n.handleBlocks(&msg)
	case "NEW_TRANSACTION":
		n.handleNewTransaction(&msg)
	default:
		if n.log != nil {
			n.log.Warnw("unknown gossip message type", "type", msg.Type)
		}
		return
	}

	n.mu.Lock()
	if peer, ok := n.peers[msg.NodeID]; ok {
		peer.LastSeen = time.Now()
	}
	n.mu.Unlock()
}

func (n *GossipNode) handleHello(msg *envelope, addr *net.UDPAddr) {
	n.mu.Lock()
	_, exists := n.peers[msg.NodeID]
	admit := !exists && len(n.peers) < maxPeers
	if admit {
		n.peers[msg.NodeID] = &Peer{
			Host:     addr.IP.String(),
			Port:     addr.Port,
			LastSeen: time.Now(),
			NodeID:   msg.NodeID,
			Version:  msg.Version,
		}
	}
	n.mu.Unlock()

	if admit {
		if n.log != nil {
			n.log.Infow("peer admitted", "node_id", msg.NodeID)
		}
		n.sendStatus(addr)
	}
}

func (n *GossipNode) handleStatus(msg *envelope, addr *net.UDPAddr) {
	n.mu.Lock()
	peer, ok := n.peers[msg.NodeID]
	if ok {
		peer.LastSeen = time.Now()
		peer.Height = msg.Height
	}
	n.mu.Unlock()

	if !ok {
		return
	}
	if msg.Height > n.chain.Height() {
		n.sendGetBlocks(addr, n.chain.Height())
	}
}

func (n *GossipNode) handleGetBlocks(msg *envelope, addr *net.UDPAddr) {
	end := msg.End
	if end == 0 {
		end = -1
	}
	blocks := n.chain.BlocksFrom(msg.Start, end)
	n.sendBlocks(addr, blocks)
}

func (n *GossipNode) handleBlocks(msg *envelope) {
	if n.alreadySeen(msg.MsgID) {
		return
	}
	var blocks []*Block
	if err := json.Unmarshal(msg.Blocks, &blocks); err != nil {
		if n.log != nil {
			n.log.Warnw("malformed BLOCKS payload", "error", err)
		}
		return
	}
	for _, block := range blocks {
		if err := n.chain.AddBlock(block); err != nil {
			if n.log != nil {
				n.log.Warnw("failed to add gossiped block", "error", err, "hash", block.Hash)
			}
		}
	}
}

func (n *GossipNode) handleNewTransaction(msg *envelope) {
	if n.alreadySeen(msg.MsgID) {
		return
	}
	var tx Transaction
	if err := json.Unmarshal(msg.Tx, &tx); err != nil {
		if n.log != nil {
			n.log.Warnw("malformed transaction payload", "error", err)
		}
		return
	}
	if n.chain.AddTransaction(&tx) {
		n.broadcastTransaction(&tx, msg.MsgID)
	}
}

// alreadySeen reports whether msgID has been observed before, recording
// it if not, bounding rebroadcast amplification (spec §4.6).
func (n *GossipNode) alreadySeen(msgID string) bool {
	if msgID == "" {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.seen[msgID]; ok {
		return true
	}
	n.seen[msgID] = struct{}{}
	return false
}

func (n *GossipNode) periodicGossip(ctx context.Context) {
	ticker := time.NewTicker(gossipInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.broadcastStatus()
		}
	}
}

func (n *GossipNode) cleanupPeers(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.evictStalePeers()
		}
	}
}

func (n *GossipNode) evictStalePeers() {
	now := time.Now()
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, peer := range n.peers {
		if now.Sub(peer.LastSeen) > peerTimeout {
			delete(n.peers, id)
			if n.log != nil {
				n.log.Infow("peer evicted", "node_id", id)
			}
		}
	}
}

func (n *GossipNode) broadcastStatus() {
	msg := envelope{Type: "STATUS", NodeID: n.nodeID, Version: gossipVersion, Height: n.chain.Height()}
	n.broadcast(&msg)
}

// broadcastTransaction rebroadcasts tx once to every peer, tagged with
// msgID so recipients can deduplicate further hops.
func (n *GossipNode) broadcastTransaction(tx *Transaction, msgID string) {
	if msgID == "" {
		msgID = uuid.NewString()
	}
	payload, err := json.Marshal(tx)
	if err != nil {
		return
	}
	msg := envelope{Type: "NEW_TRANSACTION", NodeID: n.nodeID, Tx: payload, MsgID: msgID}
	n.broadcast(&msg)
}

func (n *GossipNode) broadcast(msg *envelope) {
	n.mu.Lock()
	targets := make([]*Peer, 0, len(n.peers))
	for _, p := range n.peers {
		targets = append(targets, p)
	}
	n.mu.Unlock()

	for _, p := range targets {
		n.sendTo(p.addr(), msg)
	}
}

func (n *GossipNode) sendStatus(addr *net.UDPAddr) {
	msg := envelope{Type: "STATUS", NodeID: n.nodeID, Version: gossipVersion, Height: n.chain.Height()}
	n.sendTo(addr.String(), &msg)
}

func (n *GossipNode) sendGetBlocks(addr *net.UDPAddr, start int) {
	msg := envelope{Type: "GET_BLOCKS", NodeID: n.nodeID, Start: start}
	n.sendTo(addr.String(), &msg)
}

// sendBlocks replies with the requested blocks, chunked so each
// datagram's serialized size stays under maxDatagramBytes (spec
// §4.6 "Bounds").
func (n *GossipNode) sendBlocks(addr *net.UDPAddr, blocks []*Block) {
	chunkSize := 20
	for i := 0; i < len(blocks); {
		end := i + chunkSize
		if end > len(blocks) {
			end = len(blocks)
		}
		payload, err := json.Marshal(blocks[i:end])
		if err != nil {
			i = end
			continue
		}
		// 1 KiB of headroom covers the envelope's other fields; a chunk
		// over the bound is halved and retried.
		if len(payload) > maxDatagramBytes-1024 && end-i > 1 {
			chunkSize = (end - i) / 2
			continue
		}
		msg := envelope{Type: "BLOCKS", NodeID: n.nodeID, Blocks: payload, MsgID: uuid.NewString()}
		n.sendTo(addr.String(), &msg)
		i = end
	}
}

func (n *GossipNode) sendTo(addr string, msg *envelope) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if len(data) > maxDatagramBytes {
		if n.log != nil {
			n.log.Warnw("outgoing datagram exceeds bound, dropped", "bytes", len(data))
		}
		return
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return
	}
	n.mu.Lock()
	conn := n.conn
	n.mu.Unlock()
	if conn == nil {
		return
	}
	if _, err := conn.WriteToUDP(data, udpAddr); err != nil {
		if n.log != nil {
			n.log.Warnw("udp send failed", "error", err)
		}
	}
}

// SayHello sends a HELLO introduction to a remote host:port, initiating
// peer admission on the far side.
func (n *GossipNode) SayHello(host string, port int) {
	addr := &net.UDPAddr{IP: net.ParseIP(host), Port: port}
	msg := envelope{Type: "HELLO", NodeID: n.nodeID, Version: gossipVersion}
	n.sendTo(addr.String(), &msg)
}

// SubmitTransaction admits tx to the local mempool and, on success,
// broadcasts it once to all current peers.
func (n *GossipNode) SubmitTransaction(tx *Transaction) bool {
	if !n.chain.AddTransaction(tx) {
		return false
	}
	n.broadcastTransaction(tx, uuid.NewString())
	return true
}

// PeerCount returns the number of currently admitted peers.
func (n *GossipNode) PeerCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.peers)
}

// Peers returns a snapshot of the current peer table, for the REST
// peers endpoint.
func (n *GossipNode) Peers() []*Peer {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Peer, 0, len(n.peers))
	for _, p := range n.peers {
		cp := *p
		out = append(out, &cp)
	}
	return out
}
