package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// commandKind is the closed enumeration of recognized command keys. Unknown
// keys map to cmdUnknown and are handled as an explicit branch, never a
// silent fallthrough.
type commandKind int

const (
	cmdUnknown commandKind = iota
	cmdSetFEN
	cmdAppendHistory
	cmdUndoHistory
	cmdSetHistory
	cmdSetLegalMoves
	cmdQuit
)

// Command keys are case-sensitive literals.
func kindOf(key string) commandKind {
	switch key {
	case "set fen":
		return cmdSetFEN
	case "append history":
		return cmdAppendHistory
	case "undo history":
		return cmdUndoHistory
	case "set history":
		return cmdSetHistory
	case "set legal moves":
		return cmdSetLegalMoves
	case "quit":
		return cmdQuit
	default:
		return cmdUnknown
	}
}

type rawCommand struct {
	key   string
	value json.RawMessage
}

// parseLine decodes one input line as a single JSON object. Keys are decoded
// with the token API so they are preserved in the object's own order; a Go
// map would lose it.
func parseLine(line []byte) ([]rawCommand, error) {
	dec := json.NewDecoder(bytes.NewReader(line))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	var cmds []rawCommand
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		cmds = append(cmds, rawCommand{key: key, value: raw})
	}

	if _, err := dec.Token(); err != nil { // closing brace
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after command object")
	}
	return cmds, nil
}
