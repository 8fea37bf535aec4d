package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// restServer is the read/write HTTP façade over a running Node: chain
// queries, transaction submission, peer listing, and a websocket feed
// of newly accepted blocks, built against the account-balance
// Chain/GossipNode pair.
type restServer struct {
	node *Node
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StartRestServer builds the mux router, wires rate limiting and CORS,
// and serves the REST + websocket API until the process exits. Run as
// a goroutine from the node-start CLI command; a fatal listen error is
// logged and the goroutine returns rather than killing the process.
func StartRestServer(node *Node, cfg *Config) {
	rs := &restServer{node: node}

	router := mux.NewRouter()
	router.Use(jsonContentMiddleware)

	readLimiter := newIPRateLimiter(20, 30)
	writeLimiter := newIPRateLimiter(5, 10)
	readMW := rateLimitMiddleware(readLimiter)
	writeMW := rateLimitMiddleware(writeLimiter)

	router.Handle("/balance/{address}", readMW(http.HandlerFunc(rs.getBalance))).Methods(http.MethodGet)
	router.Handle("/chain/tip", readMW(http.HandlerFunc(rs.getTip))).Methods(http.MethodGet)
	router.Handle("/chain/snapshot", readMW(http.HandlerFunc(rs.getSnapshot))).Methods(http.MethodGet)
	router.Handle("/blocks/{hash}", readMW(http.HandlerFunc(rs.getBlock))).Methods(http.MethodGet)
	router.Handle("/transactions/{address}", readMW(http.HandlerFunc(rs.getHistory))).Methods(http.MethodGet)
	router.Handle("/transaction/{id}", readMW(http.HandlerFunc(rs.getTransaction))).Methods(http.MethodGet)
	router.Handle("/peers", readMW(http.HandlerFunc(rs.getPeers))).Methods(http.MethodGet)
	router.Handle("/tx/send", writeMW(http.HandlerFunc(rs.sendTx))).Methods(http.MethodPost)
	router.HandleFunc("/ws/blocks", rs.streamBlocks)

	addr := cfg.ApiHost + ":" + strconv.Itoa(cfg.ApiPort)
	PrintNetwork("API server listening on http://%s", addr)

	srv := &http.Server{
		Handler:      corsMiddleware(router),
		Addr:         addr,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		PrintError("API server stopped: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type balanceResponse struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

type tipResponse struct {
	Height     int    `json:"height"`
	Hash       string `json:"hash"`
	Difficulty int    `json:"difficulty"`
}

type txSendRequest struct {
	Recipient string            `json:"recipient"`
	Amount    uint64            `json:"amount"`
	Fee       uint64            `json:"fee"`
	Data      map[string]string `json:"data,omitempty"`
	Tx        *Transaction      `json:"transaction,omitempty"`
}

type txSendResponse struct {
	Status string `json:"status"`
	TxID   string `json:"txid"`
}

type peerListResponse struct {
	Total int     `json:"total"`
	Peers []*Peer `json:"peers"`
}

type transactionResponse struct {
	Transaction *Transaction `json:"transaction"`
	Height      int          `json:"height"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (rs *restServer) getBalance(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["address"]
	if !ValidateAddress(addr) {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Address: addr, Balance: rs.node.Chain().GetBalance(addr)})
}

func (rs *restServer) getTip(w http.ResponseWriter, r *http.Request) {
	chain := rs.node.Chain()
	tip := chain.Tip()
	writeJSON(w, http.StatusOK, tipResponse{
		Height:     chain.Height() - 1,
		Hash:       tip.Hash,
		Difficulty: tip.Difficulty,
	})
}

func (rs *restServer) getSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rs.node.Chain().Snapshot())
}

func (rs *restServer) getBlock(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	block, ok := rs.node.Chain().BlockByHash(hash)
	if !ok {
		writeError(w, http.StatusNotFound, "block not found")
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (rs *restServer) getHistory(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["address"]
	if !ValidateAddress(addr) {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}
	writeJSON(w, http.StatusOK, rs.node.Chain().GetHistory(addr))
}

func (rs *restServer) getTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	tx, height, ok := rs.node.Chain().FindTransaction(id)
	if !ok {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse{Transaction: tx, Height: height})
}

func (rs *restServer) getPeers(w http.ResponseWriter, r *http.Request) {
	peers := rs.node.Gossip().Peers()
	writeJSON(w, http.StatusOK, peerListResponse{Total: len(peers), Peers: peers})
}

// sendTx accepts a fully-signed transaction in the request's
// "transaction" field and admits it to the local mempool, broadcasting
// it to peers on success. The request's recipient/amount/fee/data
// fields are not used.
func (rs *restServer) sendTx(w http.ResponseWriter, r *http.Request) {
	var req txSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Tx == nil {
		writeError(w, http.StatusBadRequest, "missing signed transaction")
		return
	}
	if !rs.node.Gossip().SubmitTransaction(req.Tx) {
		writeError(w, http.StatusUnprocessableEntity, "transaction rejected")
		return
	}
	writeJSON(w, http.StatusAccepted, txSendResponse{Status: "accepted", TxID: req.Tx.IdentityHash()})
}

// streamBlocks upgrades to a websocket and pushes every newly accepted
// block as JSON until the client disconnects or the chain subscription
// closes — a live feed alongside the plain polling REST endpoints.
func (rs *restServer) streamBlocks(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	blocks := rs.node.Chain().Subscribe()
	pings := time.NewTicker(30 * time.Second)
	defer pings.Stop()

	for {
		select {
		case block, ok := <-blocks:
			if !ok {
				return
			}
			if err := conn.WriteJSON(block); err != nil {
				return
			}
		case <-pings.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
