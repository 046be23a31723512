// Package gateway serves live pipeline output over WebSocket. signald pushes
// emitted signals, zone events and equity marks into the Hub, which fans them
// out to connected clients with per-channel sequence numbers so clients can
// detect gaps and backfill from the backlog.
package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Channel names carried in the envelope.
const (
	ChannelSignals    = "signals"
	ChannelZoneEvents = "zone_events"
	ChannelEquity     = "equity"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type latestEntry struct {
	Data json.RawMessage
	TS   time.Time
	Seq  int64
}

// Hub manages WebSocket clients and fan-out of pipeline events.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	latest  map[string]latestEntry
	seqs    map[string]int64
	backlog map[string]*Backlog
}

// NewHub creates an empty hub. Backlogs are created lazily per channel.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		latest:  make(map[string]latestEntry),
		seqs:    make(map[string]int64),
		backlog: make(map[string]*Backlog),
	}
}

// HandleWS upgrades the HTTP request and registers the peer.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] ws upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn:     conn,
		send:     make(chan []byte, 256),
		hub:      h,
		channels: map[string]bool{},
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("[gateway] ws client connected (%d total)", count)

	go client.sendLatest()
	go client.writePump()
	go client.readPump()
}

// RemoveClient drops a client from the hub and closes its send queue.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast marshals v and fans it out on the named channel. Slow clients
// are skipped rather than blocking the pipeline.
func (h *Hub) Broadcast(channel string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[gateway] marshal failed on %s: %v", channel, err)
		return
	}
	h.broadcastRaw(channel, data)
}

func (h *Hub) broadcastRaw(channel string, data []byte) {
	now := time.Now().UTC()

	h.mu.Lock()
	h.seqs[channel]++
	seq := h.seqs[channel]
	h.latest[channel] = latestEntry{Data: data, TS: now, Seq: seq}
	bl, ok := h.backlog[channel]
	if !ok {
		bl = NewBacklog(500)
		h.backlog[channel] = bl
	}
	h.mu.Unlock()

	// Hand-crafted envelope; cheaper than json.Marshal per fan-out.
	buf := make([]byte, 0, len(channel)+len(data)+96)
	buf = append(buf, `{"channel":"`...)
	buf = append(buf, channel...)
	buf = append(buf, `","data":`...)
	buf = append(buf, data...)
	buf = append(buf, `,"ts":"`...)
	buf = now.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, '}')

	bl.Push(seq, buf)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !client.wants(channel) {
			continue
		}
		select {
		case client.send <- buf:
		default:
		}
	}
}

// Seq returns the current sequence number for a channel.
func (h *Hub) Seq(channel string) int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seqs[channel]
}

// Missed returns backlogged envelopes for a channel in [fromSeq, toSeq],
// for clients backfilling a detected gap.
func (h *Hub) Missed(channel string, fromSeq, toSeq int64) [][]byte {
	h.mu.RLock()
	bl, ok := h.backlog[channel]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	entries := bl.Range(fromSeq, toSeq)
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.Data
	}
	return out
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
