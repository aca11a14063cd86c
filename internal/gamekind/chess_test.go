package gamekind

import (
	"errors"
	"testing"
)

func mustApply(t *testing.T, k Kind, pos Position, seat string, in MoveInput) Position {
	t.Helper()
	next, err := k.Apply(pos, seat, in)
	if err != nil {
		t.Fatalf("Apply(%s, %+v): %v", seat, in, err)
	}
	return next
}

func chessPos(t *testing.T, pos Position) *ChessPosition {
	t.Helper()
	p, ok := pos.(*ChessPosition)
	if !ok {
		t.Fatalf("expected *ChessPosition, got %T", pos)
	}
	return p
}

func TestChessStart(t *testing.T) {
	p := chessPos(t, Chess{}.Start())
	if p.Turn != "white" || p.Status != StatusActive || p.Draw.State != DrawNone {
		t.Fatalf("unexpected start position: %+v", p)
	}
	if len(p.MovesUCI) != 0 || p.FEN == "" {
		t.Fatalf("unexpected start position: %+v", p)
	}
}

func TestChessMoveUCIAndSAN(t *testing.T) {
	k := Chess{}
	pos := k.Start()
	pos = mustApply(t, k, pos, "white", MoveInput{Move: "e2e4"})
	pos = mustApply(t, k, pos, "black", MoveInput{Move: "Nf6"})

	p := chessPos(t, pos)
	if len(p.MovesUCI) != 2 || len(p.MovesSAN) != 2 {
		t.Fatalf("expected two recorded moves: %+v", p)
	}
	if p.MovesUCI[0] != "e2e4" || p.MovesUCI[1] != "g8f6" {
		t.Fatalf("unexpected UCI log: %v", p.MovesUCI)
	}
	if p.MovesSAN[0] != "e4" || p.MovesSAN[1] != "Nf6" {
		t.Fatalf("unexpected SAN log: %v", p.MovesSAN)
	}
	if p.Turn != "white" {
		t.Fatalf("expected white to move, got %s", p.Turn)
	}
}

func TestChessIllegalMoveLeavesPositionUntouched(t *testing.T) {
	k := Chess{}
	pos := mustApply(t, k, k.Start(), "white", MoveInput{Move: "e2e4"})
	before := chessPos(t, pos)
	fen, moves := before.FEN, len(before.MovesUCI)

	if _, err := k.Apply(pos, "black", MoveInput{Move: "e1e8"}); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if before.FEN != fen || len(before.MovesUCI) != moves {
		t.Fatalf("rejected move mutated the position: %+v", before)
	}
}

func TestChessTurnEnforced(t *testing.T) {
	k := Chess{}
	if _, err := k.Apply(k.Start(), "black", MoveInput{Move: "e7e5"}); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
}

func TestChessBadSeat(t *testing.T) {
	k := Chess{}
	if _, err := k.Apply(k.Start(), "red", MoveInput{Move: "e2e4"}); !errors.Is(err, ErrNoSeat) {
		t.Fatalf("expected ErrNoSeat, got %v", err)
	}
}

func TestChessCheckmate(t *testing.T) {
	k := Chess{}
	pos := k.Start()
	// fool's mate
	for _, step := range []struct{ seat, mv string }{
		{"white", "f2f3"}, {"black", "e7e5"}, {"white", "g2g4"}, {"black", "d8h4"},
	} {
		pos = mustApply(t, k, pos, step.seat, MoveInput{Move: step.mv})
	}
	p := chessPos(t, pos)
	if p.Status != StatusCheckmate || p.Winner != "black" {
		t.Fatalf("expected black checkmate, got %+v", p)
	}
	if _, err := k.Apply(pos, "white", MoveInput{Move: "a2a3"}); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
}

func TestChessResign(t *testing.T) {
	k := Chess{}
	pos := mustApply(t, k, k.Start(), "white", MoveInput{Signal: "resign"})
	p := chessPos(t, pos)
	if p.Status != StatusResigned || p.Winner != "black" {
		t.Fatalf("expected black to win by resignation, got %+v", p)
	}
}

func TestChessDrawHandshake(t *testing.T) {
	k := Chess{}
	pos := mustApply(t, k, k.Start(), "white", MoveInput{Signal: "draw_offer"})
	if p := chessPos(t, pos); p.Draw.State != DrawOffered || p.Draw.By != "white" {
		t.Fatalf("expected pending white offer, got %+v", p.Draw)
	}

	// the offerer cannot accept their own offer
	if _, err := k.Apply(pos, "white", MoveInput{Signal: "draw_accept"}); !errors.Is(err, ErrBadSignal) {
		t.Fatalf("expected ErrBadSignal, got %v", err)
	}
	// a second offer while one is pending is rejected
	if _, err := k.Apply(pos, "black", MoveInput{Signal: "draw_offer"}); !errors.Is(err, ErrBadSignal) {
		t.Fatalf("expected ErrBadSignal, got %v", err)
	}

	accepted := mustApply(t, k, pos, "black", MoveInput{Signal: "draw_accept"})
	if p := chessPos(t, accepted); p.Status != StatusDraw || p.Draw.State != DrawNone {
		t.Fatalf("expected draw, got %+v", p)
	}
}

func TestChessDrawDeclineResets(t *testing.T) {
	k := Chess{}
	pos := mustApply(t, k, k.Start(), "white", MoveInput{Signal: "draw_offer"})
	pos = mustApply(t, k, pos, "black", MoveInput{Signal: "draw_decline"})
	if p := chessPos(t, pos); p.Draw.State != DrawNone || p.Status != StatusActive {
		t.Fatalf("expected handshake reset, got %+v", p)
	}
	// a fresh offer is allowed after the decline
	if _, err := k.Apply(pos, "black", MoveInput{Signal: "draw_offer"}); err != nil {
		t.Fatalf("fresh offer after decline: %v", err)
	}
	// accept with nothing pending is rejected
	if _, err := k.Apply(pos, "black", MoveInput{Signal: "draw_accept"}); !errors.Is(err, ErrBadSignal) {
		t.Fatalf("expected ErrBadSignal, got %v", err)
	}
}

func TestChessMoveClearsDrawOffer(t *testing.T) {
	k := Chess{}
	pos := mustApply(t, k, k.Start(), "white", MoveInput{Signal: "draw_offer"})
	pos = mustApply(t, k, pos, "white", MoveInput{Move: "e2e4"})
	if p := chessPos(t, pos); p.Draw.State != DrawNone {
		t.Fatalf("board move must cancel a pending offer, got %+v", p.Draw)
	}
}

func TestChessApplyReturnsNewPosition(t *testing.T) {
	k := Chess{}
	start := k.Start()
	next := mustApply(t, k, start, "white", MoveInput{Move: "e2e4"})
	if start == next {
		t.Fatalf("Apply must not mutate its input")
	}
	if p := chessPos(t, start); len(p.MovesUCI) != 0 {
		t.Fatalf("input position mutated: %+v", p)
	}
}

func TestLookup(t *testing.T) {
	if _, ok := Lookup("chess"); !ok {
		t.Fatalf("chess kind missing")
	}
	if _, ok := Lookup("go"); ok {
		t.Fatalf("unexpected kind")
	}
}
