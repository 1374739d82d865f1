package server

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"hear-me-out/internal/game"
	"hear-me-out/internal/roomstore"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsSendBuffer   = 16
	wsReadLimit    = 1024
)

// wsHub fans one store subscription per room out to every connection watching
// that room. The subscription is opened by the first viewer and closed by the
// last.
type wsHub struct {
	mu     sync.Mutex
	engine *game.Engine
	groups map[string]*wsGroup
}

type wsGroup struct {
	clients map[*wsClient]struct{}
	sub     roomstore.Subscription
	cancel  context.CancelFunc
	last    []byte
}

type wsClient struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newWSHub(engine *game.Engine) *wsHub {
	return &wsHub{
		engine: engine,
		groups: make(map[string]*wsGroup),
	}
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
		done: make(chan struct{}),
	}
}

// Add registers client for roomID. The first viewer of a room opens the store
// subscription without holding the hub lock; viewers arriving meanwhile join the
// pending group and receive the first snapshot through Broadcast.
func (h *wsHub) Add(roomID string, client *wsClient) error {
	h.mu.Lock()
	if group := h.groups[roomID]; group != nil {
		group.clients[client] = struct{}{}
		if group.last != nil {
			client.enqueue(group.last)
		}
		h.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	group := &wsGroup{
		clients: map[*wsClient]struct{}{client: {}},
		cancel:  cancel,
	}
	h.groups[roomID] = group
	h.mu.Unlock()

	sub, err := h.engine.Subscribe(ctx, roomID, func(room *game.Room) {
		h.Broadcast(roomID, room)
	})

	h.mu.Lock()
	current := h.groups[roomID] == group
	if err != nil {
		var stranded []*wsClient
		if current {
			delete(h.groups, roomID)
			for other := range group.clients {
				if other != client {
					stranded = append(stranded, other)
				}
			}
		}
		h.mu.Unlock()
		cancel()
		for _, other := range stranded {
			other.close()
		}
		return err
	}
	if !current {
		// every viewer left while the subscription was opening
		h.mu.Unlock()
		sub.Close()
		return nil
	}
	group.sub = sub
	h.mu.Unlock()
	return nil
}

func (h *wsHub) Remove(roomID string, client *wsClient) {
	h.mu.Lock()
	group := h.groups[roomID]
	if group == nil {
		h.mu.Unlock()
		client.close()
		return
	}
	delete(group.clients, client)
	var sub roomstore.Subscription
	if len(group.clients) == 0 {
		delete(h.groups, roomID)
		sub = group.sub
		group.cancel()
	}
	h.mu.Unlock()
	client.close()
	if sub != nil {
		sub.Close()
	}
}

func (h *wsHub) Broadcast(roomID string, room *game.Room) {
	data, err := json.Marshal(room)
	if err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("encode room for websocket failed")
		return
	}
	h.mu.Lock()
	group := h.groups[roomID]
	if group == nil {
		h.mu.Unlock()
		return
	}
	group.last = data
	clients := make([]*wsClient, 0, len(group.clients))
	for client := range group.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		if !client.enqueue(data) {
			log.Warn().Str("room_id", roomID).Msg("ws client too slow, dropping")
			h.Remove(roomID, client)
		}
	}
}

func (h *wsHub) viewers(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if group := h.groups[roomID]; group != nil {
		return len(group.clients)
	}
	return 0
}

// enqueue reports false when the client cannot keep up.
func (c *wsClient) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *wsClient) writeLoop() {
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleRoomWebsocket(c *gin.Context) {
	code, ok := s.roomCode(c)
	if !ok {
		return
	}
	if _, err := s.engine.GetRoom(c.Request.Context(), code); err != nil {
		writeEngineError(c, err)
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(wsReadLimit)
	log.Info().Str("room_id", code).Str("remote", c.Request.RemoteAddr).Msg("ws connected")

	client := newWSClient(conn)
	go client.writeLoop()
	if err := s.ws.Add(code, client); err != nil {
		log.Warn().Err(err).Str("room_id", code).Msg("ws subscribe failed")
		client.close()
		return
	}
	go s.readWS(code, client)
}

// readWS only watches for the peer going away; the feed is one-way.
func (s *Server) readWS(roomID string, client *wsClient) {
	defer s.ws.Remove(roomID, client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			log.Debug().Err(err).Str("room_id", roomID).Msg("ws disconnected")
			return
		}
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 || slices.Contains(s.cfg.AllowedOrigins, "*") {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.cfg.AllowedOrigins, origin)
}
