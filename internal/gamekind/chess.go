package gamekind

import (
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Chess game statuses.
const (
	StatusActive    = "active"
	StatusCheckmate = "checkmate"
	StatusDraw      = "draw"
	StatusResigned  = "resigned"
)

// Draw handshake states. A decline or a board move returns the handshake to
// none immediately; nothing lingers across later moves or reconnects.
const (
	DrawNone    = "none"
	DrawOffered = "offered"
)

// ChessPosition is the full chess game state. The board is always
// reconstructed from the start position by replaying MovesUCI; FEN is carried
// for presentation only.
type ChessPosition struct {
	MovesUCI []string  `json:"movesUci"`
	MovesSAN []string  `json:"movesSan"`
	FEN      string    `json:"fen"`
	Turn     string    `json:"turn"`
	Status   string    `json:"status"`
	Winner   string    `json:"winner,omitempty"`
	Draw     DrawOffer `json:"draw"`
}

// DrawOffer is the pending draw handshake, if any.
type DrawOffer struct {
	State string `json:"state"`
	By    string `json:"by,omitempty"`
}

func (p *ChessPosition) Terminal() bool { return p.Status != StatusActive }

func (p *ChessPosition) clone() *ChessPosition {
	c := *p
	c.MovesUCI = append([]string(nil), p.MovesUCI...)
	c.MovesSAN = append([]string(nil), p.MovesSAN...)
	return &c
}

// Chess is the two-seat chess kind backed by corentings/chess.
type Chess struct{}

func (Chess) Name() string { return "chess" }

func (Chess) Start() Position {
	return &ChessPosition{
		MovesUCI: []string{},
		MovesSAN: []string{},
		FEN:      nchess.NewGame().FEN(),
		Turn:     "white",
		Status:   StatusActive,
		Draw:     DrawOffer{State: DrawNone},
	}
}

func (k Chess) Apply(pos Position, seat string, in MoveInput) (Position, error) {
	p, ok := pos.(*ChessPosition)
	if !ok {
		return nil, ErrIllegalMove
	}
	if seat != "white" && seat != "black" {
		return nil, ErrNoSeat
	}
	if p.Terminal() {
		return nil, ErrGameOver
	}
	if in.Signal != "" {
		return applySignal(p, seat, in.Signal)
	}
	return applyMove(p, seat, in.Move)
}

func applySignal(p *ChessPosition, seat, signal string) (Position, error) {
	next := p.clone()
	switch signal {
	case "resign":
		next.Status = StatusResigned
		next.Winner = otherSeat(seat)
		next.Draw = DrawOffer{State: DrawNone}
	case "draw_offer":
		if p.Draw.State == DrawOffered {
			return nil, ErrBadSignal
		}
		next.Draw = DrawOffer{State: DrawOffered, By: seat}
	case "draw_accept":
		if p.Draw.State != DrawOffered || p.Draw.By == seat {
			return nil, ErrBadSignal
		}
		next.Status = StatusDraw
		next.Draw = DrawOffer{State: DrawNone}
	case "draw_decline":
		if p.Draw.State != DrawOffered || p.Draw.By == seat {
			return nil, ErrBadSignal
		}
		next.Draw = DrawOffer{State: DrawNone}
	default:
		return nil, ErrUnknownSignal
	}
	return next, nil
}

func applyMove(p *ChessPosition, seat, moveStr string) (Position, error) {
	if p.Turn != seat {
		return nil, ErrNotYourTurn
	}
	moveStr = strings.TrimSpace(moveStr)
	if moveStr == "" {
		return nil, ErrIllegalMove
	}

	game := reconstruct(p.MovesUCI)
	if game == nil {
		return nil, ErrIllegalMove
	}
	gpos := game.Position()

	next := p.clone()
	uci := strings.ToLower(moveStr)
	if mv, err := (nchess.UCINotation{}).Decode(gpos, uci); err == nil {
		if err := game.Move(mv, nil); err != nil {
			return nil, ErrIllegalMove
		}
		next.MovesUCI = append(next.MovesUCI, uci)
		next.MovesSAN = append(next.MovesSAN, nchess.AlgebraicNotation{}.Encode(gpos, mv))
	} else {
		// SAN fallback
		if err := game.PushNotationMove(moveStr, nchess.AlgebraicNotation{}, nil); err != nil {
			return nil, ErrIllegalMove
		}
		last := lastMove(game)
		if last == nil {
			return nil, ErrIllegalMove
		}
		next.MovesUCI = append(next.MovesUCI, last.String())
		next.MovesSAN = append(next.MovesSAN, nchess.AlgebraicNotation{}.Encode(gpos, last))
	}

	next.FEN = game.FEN()
	if game.Position().Turn() == nchess.White {
		next.Turn = "white"
	} else {
		next.Turn = "black"
	}
	// any board move cancels a pending draw offer
	next.Draw = DrawOffer{State: DrawNone}

	switch game.Outcome() {
	case nchess.WhiteWon:
		next.Status = StatusCheckmate
		next.Winner = "white"
	case nchess.BlackWon:
		next.Status = StatusCheckmate
		next.Winner = "black"
	case nchess.Draw:
		next.Status = StatusDraw
	}
	return next, nil
}

// reconstruct replays the stored UCI moves from the start position. Replaying
// from a FEN can double-apply moves, so FEN is never an input here.
func reconstruct(moves []string) *nchess.Game {
	game := nchess.NewGame()
	for _, mv := range moves {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil
		}
	}
	return game
}

func lastMove(game *nchess.Game) *nchess.Move {
	moves := game.Moves()
	if len(moves) == 0 {
		return nil
	}
	return moves[len(moves)-1]
}

func otherSeat(seat string) string {
	if seat == "white" {
		return "black"
	}
	return "white"
}
