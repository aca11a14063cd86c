package room

import (
	"sort"

	"github.com/park285/roomhub/internal/gamekind"
)

// GamePlayer is one participant of a game session. Seat is the player's
// claimed side; whether the claim is authoritative is recomputed on every
// read, never stored.
type GamePlayer struct {
	VisitorID   string `json:"visitorId"`
	DisplayName string `json:"displayName"`
	CursorColor string `json:"cursorColor,omitempty"`
	Seat        string `json:"seat,omitempty"`
}

// GameCursor is a participant's pointer on the board, in
// percentage-of-board units.
type GameCursor struct {
	VisitorID string  `json:"visitorId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Color     string  `json:"color,omitempty"`
	Hint      string  `json:"hint,omitempty"`
}

// GameSession is the nested per-item game state. A session with zero players
// is deleted from the table; absence is indistinguishable from "never
// started".
type GameSession struct {
	ItemID   string
	Kind     gamekind.Kind
	Players  []*GamePlayer
	Cursors  map[string]*GameCursor
	Position gamekind.Position
}

func newGameSession(itemID string, kind gamekind.Kind) *GameSession {
	return &GameSession{
		ItemID:   itemID,
		Kind:     kind,
		Players:  []*GamePlayer{},
		Cursors:  map[string]*GameCursor{},
		Position: kind.Start(),
	}
}

func (g *GameSession) player(visitorID string) *GamePlayer {
	for _, p := range g.Players {
		if p.VisitorID == visitorID {
			return p
		}
	}
	return nil
}

// addPlayer appends the player, or updates name/color/seat on a repeat join.
// Idempotent by visitor id. Reports whether the player was newly added.
func (g *GameSession) addPlayer(visitorID, name, color, seat string) bool {
	if p := g.player(visitorID); p != nil {
		p.DisplayName = name
		if color != "" {
			p.CursorColor = color
		}
		if seat != "" {
			p.Seat = seat
		}
		return false
	}
	g.Players = append(g.Players, &GamePlayer{VisitorID: visitorID, DisplayName: name, CursorColor: color, Seat: seat})
	return true
}

// removePlayer drops the player and their cursor. Reports whether the player
// was present.
func (g *GameSession) removePlayer(visitorID string) bool {
	for i, p := range g.Players {
		if p.VisitorID == visitorID {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			delete(g.Cursors, visitorID)
			return true
		}
	}
	return false
}

// seatHolder returns the authoritative claimant of a seat: the
// lexicographically lowest visitor id among current claimants. Empty when the
// seat is unclaimed. Recomputed on every call so it self-heals when the
// previous holder leaves.
func (g *GameSession) seatHolder(seat string) string {
	holder := ""
	for _, p := range g.Players {
		if p.Seat != seat {
			continue
		}
		if holder == "" || p.VisitorID < holder {
			holder = p.VisitorID
		}
	}
	return holder
}

// GameStateView is the wire and snapshot shape of a game session. Seats maps
// each claimed seat to its authoritative holder at read time.
type GameStateView struct {
	Kind     string                 `json:"kind"`
	Players  []*GamePlayer          `json:"players"`
	Cursors  map[string]*GameCursor `json:"cursors"`
	Seats    map[string]string      `json:"seats"`
	Position gamekind.Position      `json:"position"`
}

func (g *GameSession) view() GameStateView {
	players := make([]*GamePlayer, len(g.Players))
	for i, p := range g.Players {
		c := *p
		players[i] = &c
	}
	cursors := make(map[string]*GameCursor, len(g.Cursors))
	for id, cur := range g.Cursors {
		c := *cur
		cursors[id] = &c
	}
	seats := map[string]string{}
	for _, p := range g.Players {
		if p.Seat != "" {
			seats[p.Seat] = g.seatHolder(p.Seat)
		}
	}
	return GameStateView{
		Kind:     g.Kind.Name(),
		Players:  players,
		Cursors:  cursors,
		Seats:    seats,
		Position: g.Position,
	}
}

// gameList returns item ids of live sessions in sorted order.
func (a *Actor) gameList() []string {
	ids := make([]string, 0, len(a.games))
	for id := range a.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
