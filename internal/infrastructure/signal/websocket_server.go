package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"rtckit/internal/core/domain"
	"rtckit/internal/core/ports"
	"rtckit/internal/core/services"
	"rtckit/pkg/sanitize"
	"rtckit/pkg/tracing"
	"rtckit/pkg/validation"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	MessageTypeChat       = "chat"
	MessageTypeFileShared = "file_shared"
	MessageTypeError      = "error"
)

var ErrRelayFull = errors.New("chat relay connection limit reached")

type Config struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	SendBufferSize int

	MessagesPerSecond float64
	Burst             int
	MaxMessageSize    int64
	MaxConnections    int

	// AllowedOrigins lists accepted Origin headers; "*" or empty accepts any.
	AllowedOrigins []string
}

// Message is the frame exchanged with chat clients.
type Message struct {
	Type      string           `json:"type"`
	SessionID domain.SessionID `json:"session_id,omitempty"`
	From      *domain.Identity `json:"from,omitempty"`
	Payload   json.RawMessage  `json:"payload,omitempty"`
}

type ChatPayload struct {
	Body string `json:"body"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Fanout carries frames to relays running on other instances.
type Fanout interface {
	PublishFrame(ctx context.Context, session domain.SessionID, frame []byte) error
}

// ChatRelay fans chat and file-share events out to every connection joined to
// the same session.
type ChatRelay struct {
	auth      services.AuthService
	sanitizer *sanitize.Sanitizer
	metrics   ports.MetricsRecorder
	config    Config
	upgrader  websocket.Upgrader

	rooms  map[domain.SessionID]map[*client]struct{}
	count  int
	fanout Fanout
	mu     sync.RWMutex

	logger *zap.SugaredLogger
}

type client struct {
	relay    *ChatRelay
	conn     *websocket.Conn
	identity domain.Identity
	session  domain.SessionID
	send     chan []byte
	limiter  *rate.Limiter

	mu     sync.Mutex
	closed bool
}

func NewChatRelay(
	auth services.AuthService,
	sanitizer *sanitize.Sanitizer,
	metrics ports.MetricsRecorder,
	config Config,
	logger *zap.SugaredLogger,
) *ChatRelay {
	if config.PingInterval <= 0 {
		config.PingInterval = 30 * time.Second
	}
	if config.PongTimeout <= config.PingInterval {
		config.PongTimeout = 2 * config.PingInterval
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 64
	}
	if config.MessagesPerSecond <= 0 {
		config.MessagesPerSecond = float64(rate.Inf)
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if sanitizer == nil {
		sanitizer, _ = sanitize.New(sanitize.PolicyUGC)
	}

	r := &ChatRelay{
		auth:      auth,
		sanitizer: sanitizer,
		metrics:   metrics,
		config:    config,
		rooms:     make(map[domain.SessionID]map[*client]struct{}),
		logger:    logger,
	}
	r.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     r.checkOrigin,
	}
	return r
}

func (r *ChatRelay) checkOrigin(req *http.Request) bool {
	origin := req.Header.Get("Origin")
	if origin == "" || len(r.config.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range r.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// HandleWebSocket authenticates the caller from the token query parameter or
// bearer header and joins it to the session_id room.
func (r *ChatRelay) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	sessionID := req.URL.Query().Get("session_id")
	if err := validation.ValidateSessionID(sessionID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	token := req.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
	}
	claims, err := r.auth.ValidateToken(token)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	if !r.reserve() {
		http.Error(w, ErrRelayFull.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.release()
		r.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		relay:    r,
		conn:     conn,
		identity: claims.Identity(),
		session:  domain.SessionID(sessionID),
		send:     make(chan []byte, r.config.SendBufferSize),
		limiter:  rate.NewLimiter(rate.Limit(r.config.MessagesPerSecond), r.config.Burst),
	}
	r.join(c)

	go c.writePump()
	c.readPump()
}

func (r *ChatRelay) reserve() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.config.MaxConnections > 0 && r.count >= r.config.MaxConnections {
		return false
	}
	r.count++
	return true
}

func (r *ChatRelay) release() {
	r.mu.Lock()
	r.count--
	r.mu.Unlock()
}

func (r *ChatRelay) join(c *client) {
	r.mu.Lock()
	room, ok := r.rooms[c.session]
	if !ok {
		room = make(map[*client]struct{})
		r.rooms[c.session] = room
	}
	room[c] = struct{}{}
	r.mu.Unlock()

	r.metrics.ChatConnectionOpened()
	r.logger.Infow("chat client joined",
		"session_id", c.session,
		"identity", c.identity.URI,
	)
}

func (r *ChatRelay) leave(c *client) {
	r.mu.Lock()
	room, ok := r.rooms[c.session]
	if ok {
		if _, member := room[c]; member {
			delete(room, c)
			r.count--
			if len(room) == 0 {
				delete(r.rooms, c.session)
			}
		} else {
			ok = false
		}
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	r.metrics.ChatConnectionClosed()
	r.logger.Infow("chat client left",
		"session_id", c.session,
		"identity", c.identity.URI,
	)
}

// NotifyFileShared broadcasts a file_shared frame to the file's session.
func (r *ChatRelay) NotifyFileShared(ctx context.Context, file domain.SharedFile) {
	payload, err := json.Marshal(file)
	if err != nil {
		r.logger.Errorw("failed to encode shared file", "file_id", file.ID, "error", err)
		return
	}
	_, span := tracing.TraceWebSocketMessage(ctx, MessageTypeFileShared, string(file.Session))
	defer span.End()

	r.broadcast(file.Session, Message{
		Type:      MessageTypeFileShared,
		SessionID: file.Session,
		Payload:   payload,
	})
}

// SetFanout makes every locally broadcast frame also go to f.
func (r *ChatRelay) SetFanout(f Fanout) {
	r.mu.Lock()
	r.fanout = f
	r.mu.Unlock()
}

func (r *ChatRelay) broadcast(session domain.SessionID, msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.Errorw("failed to encode chat frame", "type", msg.Type, "error", err)
		return 0
	}

	delivered := r.DeliverFrame(session, data)

	r.mu.RLock()
	fanout := r.fanout
	r.mu.RUnlock()
	if fanout != nil {
		ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
		defer cancel()
		if err := fanout.PublishFrame(ctx, session, data); err != nil {
			r.logger.Warnw("failed to fan out chat frame",
				"session_id", session,
				"type", msg.Type,
				"error", err,
			)
		}
	}
	return delivered
}

// DeliverFrame writes an encoded frame to the local members of session only.
func (r *ChatRelay) DeliverFrame(session domain.SessionID, data []byte) int {
	r.mu.RLock()
	members := make([]*client, 0, len(r.rooms[session]))
	for c := range r.rooms[session] {
		members = append(members, c)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, c := range members {
		if c.enqueue(data) {
			delivered++
			continue
		}
		r.logger.Warnw("dropping slow chat client",
			"session_id", session,
			"identity", c.identity.URI,
		)
		c.close()
	}
	return delivered
}

// ConnectionCount returns the number of connected clients.
func (r *ChatRelay) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, room := range r.rooms {
		n += len(room)
	}
	return n
}

// Members returns the identities joined to session.
func (r *ChatRelay) Members(session domain.SessionID) []domain.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]domain.Identity, 0, len(r.rooms[session]))
	for c := range r.rooms[session] {
		members = append(members, c.identity)
	}
	return members
}

// Close disconnects every client.
func (r *ChatRelay) Close() {
	r.mu.RLock()
	var all []*client
	for _, room := range r.rooms {
		for c := range room {
			all = append(all, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range all {
		c.close()
	}
}

// enqueue never blocks; false means the client is closed or its buffer is
// full.
func (c *client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *client) readPump() {
	r := c.relay
	defer func() {
		r.leave(c)
		c.close()
		c.conn.Close()
	}()

	if r.config.MaxMessageSize > 0 {
		c.conn.SetReadLimit(r.config.MaxMessageSize)
	}
	c.conn.SetReadDeadline(time.Now().Add(r.config.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(r.config.PongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.logger.Infow("error reading chat message",
					"session_id", c.session,
					"identity", c.identity.URI,
					"error", err,
				)
			}
			return
		}

		if !c.limiter.Allow() {
			c.sendError("rate limit exceeded")
			continue
		}

		if err := c.handle(data); err != nil {
			c.sendError(err.Error())
		}
	}
}

func (c *client) handle(data []byte) error {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	switch msg.Type {
	case MessageTypeChat:
		return c.handleChat(msg)
	case "":
		return fmt.Errorf("message type is required")
	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

func (c *client) handleChat(msg Message) error {
	r := c.relay
	_, span := tracing.TraceWebSocketMessage(context.Background(), MessageTypeChat, string(c.session))
	defer span.End()

	var payload ChatPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("invalid chat payload: %w", err)
	}

	body := r.sanitizer.HTML(payload.Body)
	r.metrics.RecordHTMLSanitized()
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("chat message is empty")
	}

	out, err := json.Marshal(ChatPayload{Body: body})
	if err != nil {
		return err
	}
	from := c.identity
	delivered := r.broadcast(c.session, Message{
		Type:      MessageTypeChat,
		SessionID: c.session,
		From:      &from,
		Payload:   out,
	})
	span.SetAttributes(attribute.Int("chat.recipients", delivered))
	return nil
}

func (c *client) sendError(message string) {
	payload, _ := json.Marshal(ErrorPayload{Message: message})
	data, err := json.Marshal(Message{Type: MessageTypeError, Payload: payload})
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *client) writePump() {
	r := c.relay
	ticker := time.NewTicker(r.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(r.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(r.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				r.logger.Infow("error sending ping", "session_id", c.session, "error", err)
				return
			}
		}
	}
}
