// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"rhythm/internal/log"
)

const (
	// WebSocketPath is where clients connect.
	WebSocketPath = "/beats"

	writeWait       = 250 * time.Millisecond
	broadcastBuffer = 256
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport closed")

// WebSocketTransport broadcasts messages as JSON to every connected client.
//
// Thread Safety:
// - Send never blocks; messages are dropped when the queue is full
// - A single goroutine writes to clients
// - Client registration is guarded by clientsMu
type WebSocketTransport struct {
	listener  net.Listener
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan Message
	server    *http.Server

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
}

// NewWebSocketTransport listens on addr and starts serving. Use ":0" for an
// ephemeral port and Addr to find it.
func NewWebSocketTransport(addr string) (*WebSocketTransport, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("websocket listen on %s: %w", addr, err)
	}

	wst := &WebSocketTransport{
		listener: ln,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local dashboards and game clients.
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, broadcastBuffer),
		done:      make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, wst.handleWebSocket)
	wst.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	wst.wg.Add(2)
	go func() {
		defer wst.wg.Done()
		log.Infof("transport: websocket server on ws://%s%s", ln.Addr(), WebSocketPath)
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("transport: websocket server error: %v", err)
		}
	}()
	go wst.handleBroadcasts()

	return wst, nil
}

// Addr returns the listening address.
func (wst *WebSocketTransport) Addr() net.Addr {
	return wst.listener.Addr()
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// handleWebSocket upgrades HTTP connections to WebSocket.
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("transport: websocket upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	n := len(wst.clients)
	wst.clientsMu.Unlock()
	log.Infof("transport: client %s connected, total: %d", conn.RemoteAddr(), n)

	// Clients only listen; a read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.drop(conn)
				return
			}
		}
	}()
}

func (wst *WebSocketTransport) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	n := len(wst.clients)
	wst.clientsMu.Unlock()
	if ok {
		conn.Close()
		log.Infof("transport: client disconnected, total: %d", n)
	}
}

// handleBroadcasts sends queued messages to all connected clients.
func (wst *WebSocketTransport) handleBroadcasts() {
	defer wst.wg.Done()
	for {
		select {
		case msg := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteJSON(msg); err != nil {
					log.Warnf("transport: error sending to client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		case <-wst.done:
			return
		}
	}
}

// Dropped returns how many messages were discarded on a full queue.
func (wst *WebSocketTransport) Dropped() uint64 {
	return wst.dropped.Load()
}

// Send queues msg for broadcast. A full queue drops the message silently.
func (wst *WebSocketTransport) Send(msg Message) error {
	select {
	case <-wst.done:
		return ErrClosed
	default:
	}
	select {
	case wst.broadcast <- msg:
	default:
		wst.dropped.Add(1)
	}
	return nil
}

// Close shuts down the server and disconnects every client.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		close(wst.done)
		err = wst.server.Close()

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()

		wst.wg.Wait()
		if n := wst.Dropped(); n > 0 {
			log.Warnf("transport: websocket dropped %d messages on a full queue", n)
		}
		log.Debug("transport: websocket server closed")
	})
	return err
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
