package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"domain-parser/internal/parser"
)

// Stream event types.
const (
	EventLookup = "lookup" // broadcast for every recorded lookup
	EventResult = "result" // reply to a frame sent by the client
	EventError  = "error"  // the client frame could not be decoded
)

// LookupEvent describes websocket payloads emitted by the lookup stream.
type LookupEvent struct {
	Type      string     `json:"type"`
	BatchID   string     `json:"batch_id,omitempty"`
	Lookup    *LookupDTO `json:"lookup,omitempty"`
	Message   string     `json:"message,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// StreamFrame is a lookup request sent by a stream client.
type StreamFrame struct {
	Operation string          `json:"operation"`
	URL       string          `json:"url"`
	Options   *parser.Options `json:"options"`
	SuffixSet string          `json:"suffix_set"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// LookupNotifier keeps track of active websocket clients and broadcasts lookup events.
type LookupNotifier struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	last    *LookupEvent
}

// NewLookupNotifier constructs a notifier instance.
func NewLookupNotifier() *LookupNotifier {
	return &LookupNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and replays the last lookup to it.
func (n *LookupNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	last := n.last
	n.mu.Unlock()

	if last != nil {
		_ = client.writeJSON(*last)
	}
	return client
}

// Unregister removes the websocket client from the notifier and closes the socket.
func (n *LookupNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the supplied event to all registered websocket clients.
func (n *LookupNotifier) Broadcast(event LookupEvent) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	if event.Type == EventLookup {
		snapshot := event
		n.last = &snapshot
	}
	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
	n.mu.Unlock()
}

// Clients returns the number of connected clients.
func (n *LookupNotifier) Clients() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

// LastLookup returns the most recently broadcast lookup, if any.
func (n *LookupNotifier) LastLookup() *LookupDTO {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil || n.last.Lookup == nil {
		return nil
	}
	copy := *n.last.Lookup
	return &copy
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}

func (s *Server) handleStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" {
				return true
			}
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	remote := conn.RemoteAddr().String()
	logrus.WithField("remote", remote).Info("lookup websocket connected")
	defer s.notifier.Unregister(client)

	for {
		var frame StreamFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if !isDecodeError(err) {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logrus.WithError(err).WithField("remote", remote).Warn("lookup websocket unexpected close")
				} else {
					logrus.WithField("remote", remote).Info("lookup websocket closed")
				}
				return
			}
			if werr := client.writeJSON(LookupEvent{
				Type:      EventError,
				Message:   err.Error(),
				Timestamp: time.Now().UTC(),
			}); werr != nil {
				return
			}
			continue
		}

		op := frame.Operation
		if op == "" {
			op = OperationParse
		}
		dto := s.lookup(lookupRequest{
			Operation: op,
			Input:     frame.URL,
			Options:   frame.Options,
			SuffixSet: frame.SuffixSet,
		})
		if err := client.writeJSON(LookupEvent{
			Type:      EventResult,
			Lookup:    &dto,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			logrus.WithError(err).WithField("remote", remote).Warn("write lookup result")
			return
		}
	}
}

// isDecodeError separates malformed frames, which are reported to the client,
// from connection failures.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, parser.ErrInvalidOptionType)
}
