// Package view is the rendering collaborator: it applies the dispatcher's
// notifications to an on-screen board model, rasterizes board frames to PNG,
// and feeds browser clicks back through the selection state machine.
package view

import (
	"bytes"
	"context"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/minaechess/minae/internal/fen"
)

const boardSquares = 8

var (
	lightSquare    = color.RGBA{233, 207, 163, 255}
	darkSquare     = color.RGBA{187, 136, 96, 255}
	highlightColor = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	boardBackdrop  = color.RGBA{28, 31, 46, 255}
	coordinateText = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
)

// Renderer draws a position plus its highlight set to a PNG frame. Rank 8 is
// at the top and file a at the left, matching the FEN output mapping.
type Renderer struct {
	squareSize int

	marginLeft   int
	marginTop    int
	marginRight  int
	marginBottom int
}

func NewRenderer(squareSize int) *Renderer {
	if squareSize < 16 {
		squareSize = 16
	}
	return &Renderer{
		squareSize:   squareSize,
		marginLeft:   squareSize / 2,
		marginTop:    squareSize / 6,
		marginRight:  squareSize / 6,
		marginBottom: squareSize / 2,
	}
}

func (r *Renderer) origin() image.Point {
	return image.Pt(r.marginLeft, r.marginTop)
}

// Bounds is the full frame size including coordinate margins.
func (r *Renderer) Bounds() image.Rectangle {
	boardSize := r.squareSize * boardSquares
	return image.Rect(0, 0, boardSize+r.marginLeft+r.marginRight, boardSize+r.marginTop+r.marginBottom)
}

// SquareAt maps a frame pixel to the board square under it.
func (r *Renderer) SquareAt(x, y int) (fen.Square, bool) {
	boardSize := r.squareSize * boardSquares
	relX := x - r.marginLeft
	relY := y - r.marginTop
	if relX < 0 || relX >= boardSize || relY < 0 || relY >= boardSize {
		return "", false
	}
	file := byte('a') + byte(relX/r.squareSize)
	rank := byte('8') - byte(relY/r.squareSize)
	return fen.NewSquare(file, rank), true
}

// RenderPNG draws the frame for a position and highlight set.
func (r *Renderer) RenderPNG(ctx context.Context, pos fen.Position, highlights []fen.Square) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(r.Bounds())
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(boardBackdrop), image.Point{}, imagedraw.Src)

	r.drawSquares(img)
	if err := r.drawPieces(img, pos); err != nil {
		return nil, err
	}
	for _, sq := range highlights {
		r.drawSquareOverlay(img, sq, highlightColor)
	}
	r.drawCoordinates(img)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawSquares(img *image.RGBA) {
	for rank := byte('1'); rank <= '8'; rank++ {
		for file := byte('a'); file <= 'h'; file++ {
			sq := fen.NewSquare(file, rank)
			imagedraw.Draw(img, r.squareRect(sq), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
		}
	}
}

func (r *Renderer) drawPieces(img *image.RGBA, pos fen.Position) error {
	for sq, piece := range pos {
		pieceImg, err := renderPieceImage(piece, r.squareSize)
		if err != nil {
			return err
		}
		imagedraw.Draw(img, r.squareRect(sq), pieceImg, image.Point{}, imagedraw.Over)
	}
	return nil
}

func (r *Renderer) drawSquareOverlay(img *image.RGBA, sq fen.Square, clr color.Color) {
	if !sq.Valid() {
		return
	}
	imagedraw.Draw(img, r.squareRect(sq), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func (r *Renderer) drawCoordinates(img *image.RGBA) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Face: face,
		Src:  image.NewUniform(coordinateText),
	}
	ascent := face.Metrics().Ascent.Ceil()

	origin := r.origin()
	boardBottom := origin.Y + boardSquares*r.squareSize

	for row := 0; row < boardSquares; row++ {
		label := string([]byte{'8' - byte(row)})
		baseline := origin.Y + row*r.squareSize + r.squareSize/2 + ascent/2
		drawCenteredText(drawer, label, r.marginLeft/2, baseline)
	}
	for col := 0; col < boardSquares; col++ {
		label := string([]byte{'a' + byte(col)})
		centerX := origin.X + col*r.squareSize + r.squareSize/2
		drawCenteredText(drawer, label, centerX, boardBottom+r.marginBottom/2+ascent/2)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func (r *Renderer) squareRect(sq fen.Square) image.Rectangle {
	origin := r.origin()
	col := int(sq.File() - 'a')
	row := int('8' - sq.Rank())
	x := origin.X + col*r.squareSize
	y := origin.Y + row*r.squareSize
	return image.Rect(x, y, x+r.squareSize, y+r.squareSize)
}

func squareColor(sq fen.Square) color.Color {
	if (int(sq.File()-'a')+int(sq.Rank()-'1'))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}
