// Package protocol implements the line-oriented command stream an external
// engine or controller drives the display with: one JSON object per line,
// each key a command. Bad input is never fatal; every rejection is a logged
// diagnostic and the read loop continues.
package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/minaechess/minae/internal/board"
	"github.com/minaechess/minae/internal/fen"
)

// maxLineBytes bounds a single command line; a full legal-move list for any
// position fits comfortably.
const maxLineBytes = 1 << 20

// Dispatcher reads command lines and turns each recognized key into a
// state-change notification, delivered FIFO on a single channel so the
// rendering side observes commands exactly in issue order.
type Dispatcher struct {
	in      io.Reader
	log     *zap.Logger
	history *board.History
	out     chan Notification
}

func NewDispatcher(in io.Reader, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		in:      in,
		log:     logger,
		history: &board.History{},
		out:     make(chan Notification, 64),
	}
}

// Notifications is the ordered state-change stream. It is closed after the
// quit command or end of input, once all prior notifications are queued.
func (d *Dispatcher) Notifications() <-chan Notification {
	return d.out
}

// Run blocks reading lines until quit or the input stream closes. End of
// input is an implicit quit, not an error. An oversized line is consumed,
// reported and skipped; it never ends the read loop.
func (d *Dispatcher) Run() {
	defer close(d.out)

	r := bufio.NewReaderSize(d.in, 64*1024)
	for {
		line, tooLong, err := readLine(r)
		if tooLong {
			d.log.Warn("command line too long, skipped", zap.Int("limit", maxLineBytes))
		} else if quit := d.dispatchLine(line); quit {
			return
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.log.Warn("input stream error", zap.Error(err))
			}
			break
		}
	}
	d.log.Info("input closed, shutting down")
	d.out <- Shutdown{}
}

// readLine accumulates one newline-terminated line, bounded by maxLineBytes.
// A line over the bound is discarded up to its terminator and reported as
// too long; the stream itself stays usable.
func readLine(r *bufio.Reader) ([]byte, bool, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if errors.Is(err, bufio.ErrBufferFull) {
			if len(line) > maxLineBytes {
				return nil, true, discardLine(r)
			}
			continue
		}
		if n := len(line); n > 0 && line[n-1] == '\n' {
			line = line[:n-1]
		}
		if len(line) > maxLineBytes {
			return nil, true, err
		}
		return line, false, err
	}
}

// discardLine consumes input up to and including the next newline.
func discardLine(r *bufio.Reader) error {
	for {
		_, err := r.ReadSlice('\n')
		if err == nil {
			return nil
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

// dispatchLine processes every key of one command object in object order.
// It reports whether a quit command terminated the loop; keys after quit on
// the same line are not processed.
func (d *Dispatcher) dispatchLine(line []byte) bool {
	if len(bytes.TrimSpace(line)) == 0 {
		return false
	}
	cmds, err := parseLine(line)
	if err != nil {
		d.log.Warn("malformed command line", zap.Error(err))
		return false
	}
	for _, c := range cmds {
		switch kindOf(c.key) {
		case cmdSetFEN:
			d.handleSetFEN(c.value)
		case cmdAppendHistory:
			if moves, ok := d.stringSlice(c.key, c.value); ok {
				d.history.Append(moves)
				d.emitHistory()
			}
		case cmdUndoHistory:
			if d.history.UndoLast() {
				d.emitHistory()
			}
		case cmdSetHistory:
			if moves, ok := d.stringSlice(c.key, c.value); ok {
				d.history.Replace(moves)
				d.emitHistory()
			}
		case cmdSetLegalMoves:
			d.handleSetLegalMoves(c.value)
		case cmdQuit:
			d.log.Info("quit command received")
			d.out <- Shutdown{}
			return true
		case cmdUnknown:
			d.log.Warn("unrecognized command", zap.String("key", c.key))
		}
	}
	return false
}

func (d *Dispatcher) handleSetFEN(raw json.RawMessage) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		d.log.Warn("set fen: value must be a string", zap.Error(err))
		return
	}
	pos, state, err := fen.Validate(s)
	if err != nil {
		d.log.Warn("set fen: rejected", zap.String("fen", s), zap.Error(err))
		return
	}
	d.out <- PositionChanged{FEN: s, Position: pos, State: state}
}

func (d *Dispatcher) handleSetLegalMoves(raw json.RawMessage) {
	moves, ok := d.stringSlice("set legal moves", raw)
	if !ok {
		return
	}
	ix, malformed := board.BuildIndex(moves)
	for _, tok := range malformed {
		d.log.Warn("set legal moves: unrecognized move", zap.String("move", tok))
	}
	d.out <- LegalMovesChanged{Index: ix}
}

func (d *Dispatcher) emitHistory() {
	d.out <- HistoryChanged{Moves: d.history.Moves(), Text: d.history.Render()}
}

func (d *Dispatcher) stringSlice(key string, raw json.RawMessage) ([]string, bool) {
	var moves []string
	if err := json.Unmarshal(raw, &moves); err != nil {
		d.log.Warn("value must be an array of strings", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return moves, true
}
