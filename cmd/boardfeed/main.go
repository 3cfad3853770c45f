// Command boardfeed plays a random game and emits display commands on
// stdout, one JSON object per line. Pipe it into minae to drive the board
// without a real engine:
//
//	boardfeed -moves 20 | minae
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	nchess "github.com/corentings/chess/v2"
)

func main() {
	moves := flag.Int("moves", 12, "half moves to play before quitting")
	delay := flag.Duration("delay", 300*time.Millisecond, "pause between positions")
	seed := flag.Int64("seed", 0, "random seed, 0 picks one from the clock")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))
	enc := json.NewEncoder(os.Stdout)

	game := nchess.NewGame()
	emit(enc, "set fen", game.FEN())
	emit(enc, "set legal moves", moveTokens(game.ValidMoves()))

	for played := 0; played < *moves && game.Outcome() == nchess.NoOutcome; played++ {
		time.Sleep(*delay)

		valid := game.ValidMoves()
		if len(valid) == 0 {
			break
		}
		pick := valid[rng.Intn(len(valid))]
		san := nchess.AlgebraicNotation{}.Encode(game.Position(), &pick)
		if err := game.Move(&pick, nil); err != nil {
			log.Fatalf("apply %s: %v", pick.String(), err)
		}

		emit(enc, "append history", []string{san})
		emit(enc, "set fen", game.FEN())
		emit(enc, "set legal moves", moveTokens(game.ValidMoves()))
	}

	time.Sleep(*delay)
	emit(enc, "quit", nil)
}

// moveTokens renders moves as from+to square pairs. Promotion picks are not
// part of the click protocol, so the piece suffix is dropped.
func moveTokens(moves []nchess.Move) []string {
	tokens := make([]string, 0, len(moves))
	for _, mv := range moves {
		tokens = append(tokens, mv.S1().String()+mv.S2().String())
	}
	return tokens
}

func emit(enc *json.Encoder, key string, value any) {
	if err := enc.Encode(map[string]any{key: value}); err != nil {
		log.Fatalf("encode %s: %v", key, err)
	}
}
