package view

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/minaechess/minae/internal/board"
	"github.com/minaechess/minae/internal/fen"
	"github.com/minaechess/minae/internal/msgcat"
	"github.com/minaechess/minae/internal/notify"
	"github.com/minaechess/minae/internal/protocol"
	"github.com/minaechess/minae/pkg/boarddto"
)

// Broadcast pushes one update to every connected viewer.
type Broadcast func(ctx context.Context, upd boarddto.Update)

type clickRequest struct {
	square fen.Square
	done   chan struct{}
}

// Board is the display model. It consumes dispatcher notifications in order,
// keeps the current position, legal-move index, selection and history, and
// re-renders a PNG frame whenever anything visible changes.
type Board struct {
	log      *zap.Logger
	renderer *Renderer
	messages *msgcat.Catalog
	sink     notify.Sink

	mu         sync.Mutex
	position   fen.Position
	state      fen.GameState
	stateKnown bool
	index      board.Index
	selection  board.Selection
	history    board.History
	highlights []fen.Square
	frame      []byte
	frameSeq   uint64

	broadcast atomic.Pointer[Broadcast]
	clicks    chan clickRequest
	done      chan struct{}
	stopOnce  sync.Once
}

func NewBoard(logger *zap.Logger, renderer *Renderer, messages *msgcat.Catalog, sink notify.Sink) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{
		log:      logger,
		renderer: renderer,
		messages: messages,
		sink:     sink,
		clicks:   make(chan clickRequest),
		done:     make(chan struct{}),
	}
}

// SetBroadcast installs the viewer push callback. It may be set after Run has
// started; updates before that are dropped.
func (b *Board) SetBroadcast(fn Broadcast) {
	b.broadcast.Store(&fn)
}

// Done closes once the board loop has stopped, whether by a shutdown
// notification, end of the notification stream, or context cancellation.
func (b *Board) Done() <-chan struct{} {
	return b.done
}

// Run is the single consumer of both notifications and viewer clicks, so the
// two are observed in one total order. Before a click is applied, every
// notification already queued is applied first: a forced reset that was
// issued before the click always wins, and the click then runs against the
// fresh index, never the stale one.
func (b *Board) Run(ctx context.Context, in <-chan protocol.Notification) {
	defer b.stopOnce.Do(func() { close(b.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-in:
			if !ok {
				return
			}
			if quit := b.apply(ctx, n); quit {
				return
			}
		case req := <-b.clicks:
			stopped := b.drain(ctx, in)
			if !stopped {
				b.applyClick(ctx, req.square)
			}
			close(req.done)
			if stopped {
				return
			}
		}
	}
}

// drain applies every already-queued notification. It reports whether the
// loop should stop (shutdown seen or stream closed).
func (b *Board) drain(ctx context.Context, in <-chan protocol.Notification) bool {
	for {
		select {
		case n, ok := <-in:
			if !ok {
				return true
			}
			if quit := b.apply(ctx, n); quit {
				return true
			}
		default:
			return false
		}
	}
}

func (b *Board) apply(ctx context.Context, n protocol.Notification) bool {
	switch v := n.(type) {
	case protocol.PositionChanged:
		b.applyPosition(ctx, v)
	case protocol.LegalMovesChanged:
		b.applyLegalMoves(ctx, v)
	case protocol.HistoryChanged:
		b.applyHistory(ctx, v)
	case protocol.Shutdown:
		b.applyShutdown(ctx)
		return true
	default:
		b.log.Warn("unknown notification", zap.Any("notification", n))
	}
	return false
}

// applyPosition replaces the position wholesale and forces the selection
// back to idle; any pending highlight belongs to the previous position.
func (b *Board) applyPosition(ctx context.Context, n protocol.PositionChanged) {
	b.mu.Lock()
	b.position = n.Position
	b.state = n.State
	b.stateKnown = true
	b.selection.Reset()
	b.highlights = nil
	b.renderLocked(ctx)
	stateText := b.stateTextLocked()
	seq := b.frameSeq
	b.mu.Unlock()

	b.push(ctx, boarddto.Update{Type: boarddto.UpdateFrame, FrameSeq: seq})
	b.push(ctx, boarddto.Update{Type: boarddto.UpdateState, Text: stateText})
}

// applyLegalMoves installs the new index. The old selection may reference
// moves that no longer exist, so it is always reset.
func (b *Board) applyLegalMoves(ctx context.Context, n protocol.LegalMovesChanged) {
	b.mu.Lock()
	b.index = n.Index
	b.selection.Reset()
	changed := len(b.highlights) > 0
	b.highlights = nil
	if changed {
		b.renderLocked(ctx)
	}
	seq := b.frameSeq
	b.mu.Unlock()

	if changed {
		b.push(ctx, boarddto.Update{Type: boarddto.UpdateFrame, FrameSeq: seq})
	}
}

func (b *Board) applyHistory(ctx context.Context, n protocol.HistoryChanged) {
	b.mu.Lock()
	b.history.Replace(n.Moves)
	b.mu.Unlock()

	b.push(ctx, boarddto.Update{Type: boarddto.UpdateHistory, Text: n.Text})
}

func (b *Board) applyShutdown(ctx context.Context) {
	b.push(ctx, boarddto.Update{Type: boarddto.UpdateShutdown, Text: b.messages.MustRender("web.disconnected", nil)})
	if b.sink != nil {
		if err := b.sink.Shutdown(ctx); err != nil {
			b.log.Warn("shutdown sink failed", zap.Error(err))
		}
	}
}

// Click hands one viewer click to the board loop and returns once it has
// been applied. A click racing a queued position or index change loses to
// it: the loop applies the queued notifications first.
func (b *Board) Click(ctx context.Context, sq fen.Square) {
	if !sq.Valid() {
		b.log.Debug("click outside board", zap.String("square", string(sq)))
		return
	}
	req := clickRequest{square: sq, done: make(chan struct{})}
	select {
	case b.clicks <- req:
	case <-b.done:
		return
	case <-ctx.Done():
		return
	}
	select {
	case <-req.done:
	case <-b.done:
	case <-ctx.Done():
	}
}

// ClickPixel maps a frame pixel to a square before clicking. Pixels on the
// coordinate margins are ignored.
func (b *Board) ClickPixel(ctx context.Context, x, y int) {
	sq, ok := b.renderer.SquareAt(x, y)
	if !ok {
		return
	}
	b.Click(ctx, sq)
}

// applyClick runs the selection state machine for one click. Only the board
// loop calls it, after draining queued notifications.
func (b *Board) applyClick(ctx context.Context, sq fen.Square) {
	b.mu.Lock()
	outcome := b.selection.Click(b.index, sq)

	var committed *boarddto.Move
	if outcome.Committed != nil {
		b.index = nil
		committed = &boarddto.Move{
			From: string(outcome.Committed.From),
			To:   string(outcome.Committed.To),
		}
	}
	b.highlights = outcome.Highlights
	b.renderLocked(ctx)
	seq := b.frameSeq
	b.mu.Unlock()

	b.push(ctx, boarddto.Update{Type: boarddto.UpdateFrame, FrameSeq: seq, Highlights: squareStrings(outcome.Highlights)})

	if committed == nil {
		return
	}
	b.log.Info("move committed", zap.String("from", committed.From), zap.String("to", committed.To))
	b.push(ctx, boarddto.Update{
		Type: boarddto.UpdateMove,
		Text: b.messages.MustRender("event.move", committed),
		Move: committed,
	})
	if b.sink != nil {
		if err := b.sink.MoveCommitted(ctx, *committed); err != nil {
			b.log.Warn("move sink failed", zap.Error(err))
		}
	}
}

// Frame returns the latest rendered PNG and its sequence number. The bytes
// are shared; callers must not modify them.
func (b *Board) Frame() ([]byte, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame, b.frameSeq
}

// Snapshot returns the updates a freshly connected viewer needs to catch up.
func (b *Board) Snapshot() []boarddto.Update {
	b.mu.Lock()
	defer b.mu.Unlock()

	updates := []boarddto.Update{
		{Type: boarddto.UpdateFrame, FrameSeq: b.frameSeq, Highlights: squareStrings(b.highlights)},
		{Type: boarddto.UpdateHistory, Text: b.history.Render()},
	}
	if b.stateKnown {
		updates = append(updates, boarddto.Update{Type: boarddto.UpdateState, Text: b.stateTextLocked()})
	} else {
		updates = append(updates, boarddto.Update{Type: boarddto.UpdateState, Text: b.messages.MustRender("web.waiting", nil)})
	}
	return updates
}

func (b *Board) renderLocked(ctx context.Context) {
	frame, err := b.renderer.RenderPNG(ctx, b.position, b.highlights)
	if err != nil {
		b.log.Error("render failed", zap.Error(err))
		return
	}
	b.frame = frame
	b.frameSeq++
}

func (b *Board) stateTextLocked() string {
	turn := "white"
	if b.state.ActiveColor == "b" {
		turn = "black"
	}
	var sb strings.Builder
	writeStateLine(&sb, b.messages.MustRender("state.turn", nil), turn)
	writeStateLine(&sb, b.messages.MustRender("state.castling", nil), b.state.Castling)
	writeStateLine(&sb, b.messages.MustRender("state.enpassant", nil), b.state.EnPassant)
	writeStateLine(&sb, b.messages.MustRender("state.halfmove", nil), strconv.Itoa(b.state.HalfmoveClock))
	writeStateLine(&sb, b.messages.MustRender("state.fullmove", nil), strconv.Itoa(b.state.FullmoveNumber))
	return strings.TrimRight(sb.String(), "\n")
}

func writeStateLine(sb *strings.Builder, label, value string) {
	sb.WriteString(label)
	sb.WriteString(": ")
	sb.WriteString(value)
	sb.WriteByte('\n')
}

func (b *Board) push(ctx context.Context, upd boarddto.Update) {
	fn := b.broadcast.Load()
	if fn == nil || *fn == nil {
		return
	}
	(*fn)(ctx, upd)
}

func squareStrings(squares []fen.Square) []string {
	if len(squares) == 0 {
		return nil
	}
	out := make([]string, len(squares))
	for i, sq := range squares {
		out[i] = string(sq)
	}
	return out
}
