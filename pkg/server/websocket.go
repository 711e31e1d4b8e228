package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/routetable/pkg/lazy"
	"github.com/vango-dev/routetable/pkg/navigation"
)

// Message types on the live navigation channel.
const (
	msgNavigate = "navigate"
	msgPrefetch = "prefetch"

	msgHello    = "hello"
	msgMount    = "mount"
	msgNotFound = "not_found"
	msgError    = "error"
)

// clientMessage is a message sent by the browser.
type clientMessage struct {
	Type    string `json:"type"`
	Path    string `json:"path"`
	Seq     uint64 `json:"seq"`
	Replace bool   `json:"replace,omitempty"`
}

// componentView describes a loaded component in a mount message.
type componentView struct {
	Name    string            `json:"name"`
	Route   string            `json:"route"`
	Chunk   string            `json:"chunk,omitempty"`
	Version string            `json:"version,omitempty"`
	Digest  string            `json:"digest"`
	Size    int64             `json:"size"`
	Props   map[string]string `json:"props,omitempty"`
}

// serverMessage is a message sent to the browser. Replies to a navigate
// carry its seq; clients apply only the newest.
type serverMessage struct {
	Type       string          `json:"type"`
	Seq        uint64          `json:"seq,omitempty"`
	Session    string          `json:"session,omitempty"`
	ID         string          `json:"id,omitempty"`
	Path       string          `json:"path,omitempty"`
	URL        string          `json:"url,omitempty"`
	Route      string          `json:"route,omitempty"`
	Replace    bool            `json:"replace,omitempty"`
	Trail      []string        `json:"trail,omitempty"`
	Components []componentView `json:"components,omitempty"`
	Cause      string          `json:"cause,omitempty"`
	Component  string          `json:"component,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// session is one live navigation connection.
type session struct {
	id     string
	srv    *Server
	conn   *websocket.Conn
	nav    *navigation.Navigator
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	send chan []byte
	done chan struct{}
	once sync.Once
}

// HandleWebSocket upgrades the request and runs a live navigation session
// until the connection closes.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		s.wsError("upgrade")
		return
	}

	sess := s.newSession(r.Context(), conn)
	s.addSession(sess)
	sess.logger.Info("session opened", "remote", r.RemoteAddr)

	sess.enqueue(serverMessage{Type: msgHello, Session: sess.id})
	go sess.writePump()
	sess.readPump()
}

func (s *Server) newSession(ctx context.Context, conn *websocket.Conn) *session {
	id := uuid.NewString()
	logger := s.logger.With("session", id)

	mw := append([]navigation.Middleware(nil), s.navMW...)
	if s.metrics != nil {
		mw = append(mw, s.metrics.Middleware())
	}

	sess := &session{
		id:     id,
		srv:    s,
		conn:   conn,
		logger: logger,
		send:   make(chan []byte, s.config.SendBuffer),
		done:   make(chan struct{}),
		nav: navigation.New(s.table,
			navigation.WithLogger(logger),
			navigation.WithMiddleware(mw...),
		),
	}
	sess.ctx, sess.cancel = context.WithCancel(ctx)
	return sess
}

func (c *session) readPump() {
	defer c.close(websocket.CloseNormalClosure, "")

	cfg := c.srv.config
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait)); err != nil {
		c.logger.Warn("error setting read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}
		c.dispatch(raw)
	}
}

// handleReadError logs why the read loop ended.
func (c *session) handleReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.Warn("message exceeded size limit", "limit", c.srv.config.MaxMessageSize)
		c.srv.wsError("read_limit")
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		c.logger.Info("client disconnected")
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		c.logger.Debug("connection closed", "error", err)
	default:
		c.logger.Warn("websocket read error", "error", err)
		c.srv.wsError("read")
	}
}

func (c *session) dispatch(raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.enqueue(serverMessage{Type: msgError, Error: "invalid message"})
		return
	}

	switch msg.Type {
	case msgNavigate:
		if msg.Path == "" {
			c.enqueue(serverMessage{Type: msgError, Seq: msg.Seq, Error: "missing path"})
			return
		}
		go c.navigate(msg)
	case msgPrefetch:
		go c.prefetch(msg)
	default:
		c.enqueue(serverMessage{Type: msgError, Seq: msg.Seq, Error: "unknown message type " + msg.Type})
	}
}

func (c *session) navigate(msg clientMessage) {
	var opts []navigation.Option
	if msg.Replace {
		opts = append(opts, navigation.WithReplace())
	}

	out, err := c.nav.Navigate(c.ctx, msg.Path, opts...)
	switch {
	case errors.Is(err, navigation.ErrSuperseded):
		return
	case c.ctx.Err() != nil:
		return
	case err != nil:
		reply := serverMessage{Type: msgError, Seq: msg.Seq, Path: msg.Path, Error: err.Error()}
		var le *lazy.LoadError
		if errors.As(err, &le) {
			reply.Component = le.Name
		}
		c.enqueue(reply)
	case out.Status == navigation.StatusNotFound:
		reply := serverMessage{Type: msgNotFound, Seq: msg.Seq, ID: out.ID, Path: out.Path, Trail: out.Trail}
		if out.Cause != nil {
			reply.Cause = out.Cause.Error()
		}
		c.enqueue(reply)
	default:
		c.enqueue(c.srv.mountMessage(msg.Seq, out))
	}
}

func (s *Server) mountMessage(seq uint64, out *navigation.Outcome) serverMessage {
	m := out.Mount
	reply := serverMessage{
		Type:    msgMount,
		Seq:     seq,
		ID:      out.ID,
		Path:    m.Path,
		URL:     m.URL(),
		Route:   m.Route,
		Replace: m.Replace,
		Trail:   out.Trail,
	}
	for i, l := range m.Layers {
		comp := m.Components[i]
		reply.Components = append(reply.Components, componentView{
			Name:    comp.Name,
			Route:   l.Route,
			Chunk:   s.chunkURL(comp.Name),
			Version: comp.Version,
			Digest:  comp.Digest,
			Size:    comp.Size,
			Props:   l.Props,
		})
	}
	return reply
}

func (c *session) prefetch(msg clientMessage) {
	if err := c.nav.Prefetch(c.ctx, msg.Path); err != nil && c.ctx.Err() == nil {
		c.logger.Debug("prefetch failed", "path", msg.Path, "error", err)
	}
}

// enqueue queues msg for the writer. A client that stops reading long
// enough to fill the buffer is disconnected.
func (c *session) enqueue(msg serverMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("encode message", "type", msg.Type, "error", err)
		return
	}

	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- b:
	case <-c.done:
	default:
		c.logger.Warn("send buffer full, closing session")
		c.srv.wsError("send_overflow")
		go c.close(websocket.ClosePolicyViolation, "send buffer full")
	}
}

func (c *session) writePump() {
	cfg := c.srv.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case b := <-c.send:
			if err := c.write(websocket.TextMessage, b); err != nil {
				c.logger.Debug("write failed", "error", err)
				c.srv.wsError("write")
				c.close(websocket.CloseAbnormalClosure, "")
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("ping failed", "error", err)
				c.close(websocket.CloseAbnormalClosure, "")
				return
			}
		}
	}
}

func (c *session) write(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.srv.config.WriteWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// close ends the session once: navigations in flight are cancelled, the
// writer stops and the connection is closed.
func (c *session) close(code int, reason string) {
	c.once.Do(func() {
		c.cancel()
		close(c.done)

		if code != websocket.CloseAbnormalClosure {
			deadline := time.Now().Add(c.srv.config.WriteWait)
			_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		}
		_ = c.conn.Close()

		c.srv.removeSession(c)
		c.logger.Info("session closed")
	})
}
