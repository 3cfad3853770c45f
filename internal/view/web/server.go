// Package web serves the browser-facing side of the display: the board page,
// the current board frame as PNG, and a websocket that pushes updates to
// viewers and carries their clicks back.
package web

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/minaechess/minae/internal/fen"
	"github.com/minaechess/minae/internal/msgcat"
	"github.com/minaechess/minae/internal/view"
	"github.com/minaechess/minae/pkg/boarddto"
)

//go:embed index.html
var indexHTML string

const pushTimeout = 5 * time.Second

type client struct {
	id   string
	conn *websocket.Conn
}

// Server exposes a Board to browser viewers.
type Server struct {
	log      *zap.Logger
	board    *view.Board
	page     *template.Template
	pageData pageData

	mu      sync.Mutex
	clients map[string]*client
}

type pageData struct {
	Title   string
	Waiting string
}

func New(logger *zap.Logger, b *view.Board, messages *msgcat.Catalog) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	page, err := template.New("index").Parse(indexHTML)
	if err != nil {
		return nil, fmt.Errorf("parse index page: %w", err)
	}
	s := &Server{
		log:   logger,
		board: b,
		page:  page,
		pageData: pageData{
			Title:   messages.MustRender("web.title", nil),
			Waiting: messages.MustRender("web.waiting", nil),
		},
		clients: make(map[string]*client),
	}
	b.SetBroadcast(s.Broadcast)
	return s, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/board.png", s.handleFrame)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, s.pageData); err != nil {
		s.log.Warn("render index failed", zap.Error(err))
	}
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	frame, seq := s.board.Frame()
	if len(frame) == 0 {
		http.Error(w, "no frame yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("ETag", fmt.Sprintf("%q", fmt.Sprint(seq)))
	_, _ = w.Write(frame)
}

// clickMessage is one inbound viewer click: either a square name or frame
// pixel coordinates.
type clickMessage struct {
	Square string `json:"square,omitempty"`
	X      *int   `json:"x,omitempty"`
	Y      *int   `json:"y,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.log.Warn("websocket accept failed", zap.Error(err))
		return
	}

	c := &client{id: uuid.NewString(), conn: conn}
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	s.log.Info("viewer connected", zap.String("viewer", c.id))

	defer func() {
		s.drop(c, websocket.StatusNormalClosure, "bye")
	}()

	ctx := r.Context()
	for _, upd := range s.board.Snapshot() {
		if err := writeUpdate(ctx, conn, upd); err != nil {
			s.log.Debug("snapshot push failed", zap.String("viewer", c.id), zap.Error(err))
			return
		}
	}

	for {
		var msg clickMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				s.log.Debug("viewer read failed", zap.String("viewer", c.id), zap.Error(err))
			}
			return
		}
		switch {
		case msg.Square != "":
			s.board.Click(ctx, fen.Square(msg.Square))
		case msg.X != nil && msg.Y != nil:
			s.board.ClickPixel(ctx, *msg.X, *msg.Y)
		default:
			s.log.Debug("ignoring empty click", zap.String("viewer", c.id))
		}
	}
}

// Broadcast pushes one update to every connected viewer. Slow or dead
// viewers are dropped rather than stalling the rest.
func (s *Server) Broadcast(ctx context.Context, upd boarddto.Update) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := writeUpdate(ctx, c.conn, upd); err != nil {
			s.log.Info("dropping viewer", zap.String("viewer", c.id), zap.Error(err))
			s.drop(c, websocket.StatusPolicyViolation, "write failed")
		}
	}
}

// Close disconnects every viewer.
func (s *Server) Close() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()
	for _, c := range clients {
		s.drop(c, websocket.StatusGoingAway, "server closing")
	}
}

func (s *Server) drop(c *client, code websocket.StatusCode, reason string) {
	s.mu.Lock()
	_, present := s.clients[c.id]
	delete(s.clients, c.id)
	s.mu.Unlock()
	if present {
		_ = c.conn.Close(code, reason)
	}
}

func writeUpdate(ctx context.Context, conn *websocket.Conn, upd boarddto.Update) error {
	wctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, upd)
}
