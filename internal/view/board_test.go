package view

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/minaechess/minae/internal/board"
	"github.com/minaechess/minae/internal/fen"
	"github.com/minaechess/minae/internal/msgcat"
	"github.com/minaechess/minae/internal/protocol"
	"github.com/minaechess/minae/pkg/boarddto"
)

type recordingSink struct {
	mu       sync.Mutex
	moves    []boarddto.Move
	shutdown int
}

func (s *recordingSink) MoveCommitted(_ context.Context, mv boarddto.Move) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moves = append(s.moves, mv)
	return nil
}

func (s *recordingSink) Shutdown(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown++
	return nil
}

func (s *recordingSink) committed() []boarddto.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]boarddto.Move(nil), s.moves...)
}

type updateCollector struct {
	mu      sync.Mutex
	updates []boarddto.Update
}

func (c *updateCollector) push(_ context.Context, upd boarddto.Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, upd)
}

func (c *updateCollector) byType(typ string) []boarddto.Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []boarddto.Update
	for _, u := range c.updates {
		if u.Type == typ {
			out = append(out, u)
		}
	}
	return out
}

func newTestBoard(t *testing.T) (*Board, *recordingSink, *updateCollector) {
	t.Helper()
	messages, err := msgcat.New("")
	if err != nil {
		t.Fatalf("load messages: %v", err)
	}
	sink := &recordingSink{}
	collector := &updateCollector{}
	b := NewBoard(zap.NewNop(), NewRenderer(24), messages, sink)
	b.SetBroadcast(collector.push)
	return b, sink, collector
}

// startBoard runs the board loop and returns the notification channel
// feeding it.
func startBoard(t *testing.T, b *Board) chan protocol.Notification {
	t.Helper()
	in := make(chan protocol.Notification, 16)
	go b.Run(context.Background(), in)
	return in
}

func stopBoard(t *testing.T, b *Board, in chan protocol.Notification) {
	t.Helper()
	in <- protocol.Shutdown{}
	select {
	case <-b.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("board did not stop")
	}
}

func startPosition(t *testing.T) protocol.PositionChanged {
	t.Helper()
	const start = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	pos, state, err := fen.Validate(start)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	return protocol.PositionChanged{FEN: start, Position: pos, State: state}
}

func legalMoves(t *testing.T, moves ...string) protocol.LegalMovesChanged {
	t.Helper()
	ix, bad := board.BuildIndex(moves)
	if len(bad) != 0 {
		t.Fatalf("bad tokens in fixture: %v", bad)
	}
	return protocol.LegalMovesChanged{Index: ix}
}

func TestBoardClickCommitsAndClearsIndex(t *testing.T) {
	b, sink, collector := newTestBoard(t)
	ctx := context.Background()
	in := startBoard(t, b)

	in <- startPosition(t)
	in <- legalMoves(t, "e2e4", "e2e3", "g1f3")

	b.Click(ctx, "e2")
	frames := collector.byType(boarddto.UpdateFrame)
	last := frames[len(frames)-1]
	if len(last.Highlights) != 3 {
		t.Fatalf("highlights after select = %v, want e2+e3+e4", last.Highlights)
	}

	b.Click(ctx, "e4")
	moves := sink.committed()
	if len(moves) != 1 || moves[0].From != "e2" || moves[0].To != "e4" {
		t.Fatalf("committed moves = %v, want [e2->e4]", moves)
	}

	// The index is cleared on commit, so re-clicking must not select.
	b.Click(ctx, "e2")
	b.Click(ctx, "e4")
	if got := sink.committed(); len(got) != 1 {
		t.Fatalf("stale index allowed %d commits, want 1", len(got))
	}

	stopBoard(t, b, in)
}

func TestBoardQueuedResetBeatsClick(t *testing.T) {
	b, sink, _ := newTestBoard(t)
	ctx := context.Background()
	in := startBoard(t, b)

	in <- startPosition(t)
	in <- legalMoves(t, "e2e4")
	b.Click(ctx, "e2")

	// An index replacement queued before the click must be applied first,
	// so the click lands on the empty index and commits nothing.
	in <- protocol.LegalMovesChanged{Index: board.Index{}}
	b.Click(ctx, "e4")
	if got := sink.committed(); len(got) != 0 {
		t.Fatalf("stale click committed %d move(s) although the forced reset was queued first: %v", len(got), got)
	}

	stopBoard(t, b, in)
}

func TestBoardQueuedPositionBeatsClick(t *testing.T) {
	b, sink, _ := newTestBoard(t)
	ctx := context.Background()
	in := startBoard(t, b)

	in <- startPosition(t)
	in <- legalMoves(t, "e2e4")
	b.Click(ctx, "e2")

	in <- startPosition(t)
	b.Click(ctx, "e4")
	if got := sink.committed(); len(got) != 0 {
		t.Fatalf("selection survived a queued position change: %v", got)
	}
	if len(b.Snapshot()[0].Highlights) != 0 {
		t.Fatal("highlights survived a position change")
	}

	stopBoard(t, b, in)
}

func TestBoardHistoryUpdate(t *testing.T) {
	b, _, collector := newTestBoard(t)
	in := startBoard(t, b)

	in <- protocol.HistoryChanged{Moves: []string{"e4", "e5"}, Text: "1. e4 e5\n"}
	stopBoard(t, b, in)

	got := collector.byType(boarddto.UpdateHistory)
	if len(got) != 1 || got[0].Text != "1. e4 e5\n" {
		t.Fatalf("history updates = %v", got)
	}
}

func TestBoardRunShutdown(t *testing.T) {
	b, sink, collector := newTestBoard(t)

	in := make(chan protocol.Notification, 4)
	in <- startPosition(t)
	in <- protocol.Shutdown{}
	close(in)

	go b.Run(context.Background(), in)

	select {
	case <-b.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("board did not shut down")
	}
	sink.mu.Lock()
	shutdowns := sink.shutdown
	sink.mu.Unlock()
	if shutdowns != 1 {
		t.Fatalf("shutdown sink called %d times, want 1", shutdowns)
	}
	if got := collector.byType(boarddto.UpdateShutdown); len(got) != 1 {
		t.Fatalf("shutdown updates = %v, want exactly one", got)
	}

	// Clicks after shutdown must not block or commit.
	b.Click(context.Background(), "e2")
	if got := sink.committed(); len(got) != 0 {
		t.Fatalf("click after shutdown committed: %v", got)
	}
}

func TestBoardFrameSequenceAdvances(t *testing.T) {
	b, _, _ := newTestBoard(t)
	in := startBoard(t, b)

	_, seq0 := b.Frame()
	in <- startPosition(t)
	stopBoard(t, b, in)

	frame, seq1 := b.Frame()
	if seq1 <= seq0 {
		t.Fatalf("frame seq did not advance: %d -> %d", seq0, seq1)
	}
	if len(frame) == 0 {
		t.Fatal("expected a rendered frame")
	}
}
