package protocol

import (
	"reflect"
	"strings"
	"testing"
)

func runScript(t *testing.T, script string) []Notification {
	t.Helper()
	d := NewDispatcher(strings.NewReader(script), nil)
	done := make(chan struct{})
	go func() {
		d.Run()
		close(done)
	}()
	var got []Notification
	for n := range d.Notifications() {
		got = append(got, n)
	}
	<-done
	return got
}

func TestDispatchSetFEN(t *testing.T) {
	got := runScript(t, `{"set fen": "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"}`+"\n")
	if len(got) != 2 {
		t.Fatalf("notifications = %d, want position + shutdown", len(got))
	}
	pc, ok := got[0].(PositionChanged)
	if !ok {
		t.Fatalf("first notification is %T", got[0])
	}
	if pc.Position["a2"] != 'P' || pc.State.ActiveColor != "w" {
		t.Fatalf("unexpected position notification: %+v", pc.State)
	}
	if _, ok := got[1].(Shutdown); !ok {
		t.Fatalf("eof should emit Shutdown, got %T", got[1])
	}
}

func TestDispatchRejectedFENEmitsNothing(t *testing.T) {
	got := runScript(t, `{"set fen": "44/8/8/8/8/8/8/8 w - - 0 1"}`+"\n")
	if len(got) != 1 {
		t.Fatalf("rejected FEN must not notify, got %v", got)
	}
	if _, ok := got[0].(Shutdown); !ok {
		t.Fatalf("expected only the eof shutdown, got %T", got[0])
	}
}

func TestDispatchHistoryCommands(t *testing.T) {
	script := strings.Join([]string{
		`{"append history": ["e4", "e5"]}`,
		`{"append history": ["Nf3"]}`,
		`{"undo history": null}`,
		`{"set history": ["d4"]}`,
		`{"undo history": null}`,
		`{"undo history": null}`,
	}, "\n") + "\n"
	got := runScript(t, script)

	var texts []string
	for _, n := range got {
		if hc, ok := n.(HistoryChanged); ok {
			texts = append(texts, hc.Text)
		}
	}
	want := []string{
		"1. e4 e5\n",
		"1. e4 e5\n2. Nf3",
		"1. e4 e5\n",
		"1. d4",
		"",
	}
	if !reflect.DeepEqual(texts, want) {
		t.Fatalf("history renders = %q, want %q", texts, want)
	}
	// The final undo hits an empty log: no notification for it.
	if _, ok := got[len(got)-1].(Shutdown); !ok {
		t.Fatalf("last notification should be the eof shutdown")
	}
}

func TestDispatchSetLegalMoves(t *testing.T) {
	got := runScript(t, `{"set legal moves": ["e2e4", "xx", "g1f3"]}`+"\n")
	lm, ok := got[0].(LegalMovesChanged)
	if !ok {
		t.Fatalf("first notification is %T", got[0])
	}
	if !lm.Index["e2"].Contains("e4") || !lm.Index["g1"].Contains("f3") {
		t.Fatalf("index missing moves: %v", lm.Index)
	}
	if len(lm.Index) != 2 {
		t.Fatalf("malformed token must not create an origin: %v", lm.Index)
	}
}

func TestDispatchEmptyLegalMoves(t *testing.T) {
	got := runScript(t, `{"set legal moves": []}`+"\n")
	lm, ok := got[0].(LegalMovesChanged)
	if !ok || lm.Index == nil || len(lm.Index) != 0 {
		t.Fatalf("empty array must install a valid empty index, got %#v", got[0])
	}
}

func TestDispatchKeyOrderAndQuit(t *testing.T) {
	// Multiple keys on one line run in object order; quit stops processing,
	// so "set history" after it never runs.
	script := `{"append history": ["e4"], "quit": null, "set history": ["d4"]}` + "\n" +
		`{"append history": ["never"]}` + "\n"
	got := runScript(t, script)
	if len(got) != 2 {
		t.Fatalf("notifications = %v", got)
	}
	hc, ok := got[0].(HistoryChanged)
	if !ok || hc.Text != "1. e4" {
		t.Fatalf("first notification = %#v", got[0])
	}
	if _, ok := got[1].(Shutdown); !ok {
		t.Fatalf("second notification = %T, want Shutdown", got[1])
	}
}

func TestDispatchRecoversFromBadInput(t *testing.T) {
	script := strings.Join([]string{
		`not json at all`,
		`{"set fen": 42}`,
		`{"append history": "e4"}`,
		`{"made up command": null}`,
		`[1, 2, 3]`,
		`{"append history": ["e4"]} trailing`,
		``,
		`{"append history": ["e4"]}`,
	}, "\n") + "\n"
	got := runScript(t, script)
	if len(got) != 2 {
		t.Fatalf("notifications = %v, want one history + shutdown", got)
	}
	hc, ok := got[0].(HistoryChanged)
	if !ok || hc.Text != "1. e4" {
		t.Fatalf("unexpected first notification: %#v", got[0])
	}
}

func TestDispatchSkipsOversizedLine(t *testing.T) {
	// A line over the size cap is consumed and skipped; the commands after
	// it must still be processed.
	script := strings.Repeat("x", 2*maxLineBytes) + "\n" +
		`{"append history": ["e4"]}` + "\n"
	got := runScript(t, script)
	if len(got) != 2 {
		t.Fatalf("notifications = %v, want one history + shutdown", got)
	}
	hc, ok := got[0].(HistoryChanged)
	if !ok || hc.Text != "1. e4" {
		t.Fatalf("command after the oversized line was not processed: %#v", got[0])
	}
	if _, ok := got[1].(Shutdown); !ok {
		t.Fatalf("last notification = %T, want Shutdown", got[1])
	}
}

func TestDispatchOversizedFinalLine(t *testing.T) {
	// An oversized line with no trailing newline ends the stream cleanly.
	script := `{"append history": ["e4"]}` + "\n" + strings.Repeat("x", 2*maxLineBytes)
	got := runScript(t, script)
	if len(got) != 2 {
		t.Fatalf("notifications = %v, want one history + shutdown", got)
	}
	if _, ok := got[1].(Shutdown); !ok {
		t.Fatalf("last notification = %T, want Shutdown", got[1])
	}
}

func TestParseLinePreservesOrder(t *testing.T) {
	cmds, err := parseLine([]byte(`{"b": 1, "a": 2, "c": 3}`))
	if err != nil {
		t.Fatalf("parseLine: %v", err)
	}
	var keys []string
	for _, c := range cmds {
		keys = append(keys, c.key)
	}
	if !reflect.DeepEqual(keys, []string{"b", "a", "c"}) {
		t.Fatalf("keys = %v", keys)
	}
}
