package view

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/minaechess/minae/internal/fen"
)

func TestRendererSquareAt(t *testing.T) {
	r := NewRenderer(40)
	origin := r.origin()

	cases := []struct {
		x, y int
		want fen.Square
		ok   bool
	}{
		{origin.X + 1, origin.Y + 1, "a8", true},
		{origin.X + 7*40 + 1, origin.Y + 7*40 + 1, "h1", true},
		{origin.X + 4*40 + 20, origin.Y + 6*40 + 20, "e2", true},
		{origin.X - 1, origin.Y + 10, "", false},
		{origin.X + 10, origin.Y + 8*40, "", false},
	}
	for _, c := range cases {
		got, ok := r.SquareAt(c.x, c.y)
		if ok != c.ok || got != c.want {
			t.Fatalf("SquareAt(%d,%d) = %q,%v; want %q,%v", c.x, c.y, got, ok, c.want, c.ok)
		}
	}
}

func TestRendererRoundTripsSquareRect(t *testing.T) {
	r := NewRenderer(32)
	for rank := byte('1'); rank <= '8'; rank++ {
		for file := byte('a'); file <= 'h'; file++ {
			sq := fen.NewSquare(file, rank)
			rect := r.squareRect(sq)
			center := rect.Min.Add(rect.Max).Div(2)
			got, ok := r.SquareAt(center.X, center.Y)
			if !ok || got != sq {
				t.Fatalf("center of %s mapped to %q (ok=%v)", sq, got, ok)
			}
		}
	}
}

func TestRendererRenderPNG(t *testing.T) {
	pos, _, err := fen.Validate("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("validate start position: %v", err)
	}

	r := NewRenderer(24)
	frame, err := r.RenderPNG(context.Background(), pos, []fen.Square{"e2", "e4"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(frame))
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if img.Bounds() != r.Bounds() {
		t.Fatalf("frame bounds = %v, want %v", img.Bounds(), r.Bounds())
	}
}

func TestRendererRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRenderer(24)
	if _, err := r.RenderPNG(ctx, nil, nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
