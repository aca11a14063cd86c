// Package gamekind holds the pure per-game-kind rules. A kind owns its
// position type and its move transition; the room actor never inspects
// either, so adding a kind requires no change to join/leave/broadcast logic.
package gamekind

import "errors"

// Business-rule rejections. The actor drops the offending message silently;
// none of these ever mutate a stored position.
var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrNoSeat        = errors.New("mover holds no seat")
	ErrGameOver      = errors.New("game already decided")
	ErrBadSignal     = errors.New("signal not applicable")
	ErrUnknownSignal = errors.New("unknown signal")
)

// Position is an opaque, immutable game position. Implementations marshal to
// the wire shape pushed in game_state and game_move broadcasts.
type Position interface {
	// Terminal reports whether the game has been decided.
	Terminal() bool
}

// MoveInput is the kind-specific payload of a game_move: a board move or a
// game signal, exactly one of which is set (the validator guarantees this).
type MoveInput struct {
	Move   string
	Signal string
}

// Kind is one closed game variant.
type Kind interface {
	Name() string
	// Start returns the default starting position. A game with no players is
	// indistinguishable from this.
	Start() Position
	// Apply returns the successor of pos for a move by the given seat, or an
	// error without side effects. pos is never mutated.
	Apply(pos Position, seat string, in MoveInput) (Position, error)
}

// Default is the kind used for new game sessions.
func Default() Kind { return Chess{} }

// Lookup resolves a kind by name.
func Lookup(name string) (Kind, bool) {
	switch name {
	case Chess{}.Name():
		return Chess{}, true
	}
	return nil, false
}
