package room

import (
	"github.com/park285/roomhub/internal/gamekind"
	"github.com/park285/roomhub/internal/obslog"
	"go.uber.org/zap"
)

type eventKind int

const (
	evAttach eventKind = iota
	evDetach
	evInbound
	evSnapshot
	evReap
)

type event struct {
	kind eventKind
	conn Conn
	raw  []byte
	snap chan Snapshot
	ok   chan bool
}

// Snapshot is a point-in-time copy of a room's state, taken on the actor
// goroutine for the admin surface.
type Snapshot struct {
	RoomID   string          `json:"roomId"`
	Visitors []*VisitorState `json:"visitors"`
	Games    []GameSnapshot  `json:"games"`
}

type GameSnapshot struct {
	ItemID string        `json:"itemId"`
	State  GameStateView `json:"state"`
}

// Actor owns one room's entire state. It consumes inbound events one at a
// time to completion on a single goroutine, so visitors, games and the
// connection set need no locking: this loop is their only writer.
type Actor struct {
	id     string
	events chan event
	stop   chan struct{}
	onIdle func(*Actor)

	kind      gamekind.Kind
	conns     map[Conn]struct{}
	byVisitor map[string]Conn
	visitors  map[string]*VisitorState
	games     map[string]*GameSession
}

func newActor(id string, onIdle func(*Actor)) *Actor {
	return &Actor{
		id:        id,
		events:    make(chan event, 128),
		stop:      make(chan struct{}),
		onIdle:    onIdle,
		kind:      gamekind.Default(),
		conns:     map[Conn]struct{}{},
		byVisitor: map[string]Conn{},
		visitors:  map[string]*VisitorState{},
		games:     map[string]*GameSession{},
	}
}

// ID returns the room's public identifier.
func (a *Actor) ID() string { return a.id }

func (a *Actor) run() {
	defer close(a.stop)
	for ev := range a.events {
		switch ev.kind {
		case evAttach:
			a.handleAttach(ev.conn)
		case evDetach:
			a.handleDetach(ev.conn)
		case evInbound:
			a.handleInbound(ev.conn, ev.raw)
		case evSnapshot:
			ev.snap <- a.snapshot()
		case evReap:
			if len(a.conns) == 0 {
				ev.ok <- true
				return
			}
			ev.ok <- false
		}
	}
}

// Attach registers a freshly upgraded socket. Called by the directory with
// its lock held, which guarantees the actor has not been reaped.
func (a *Actor) attach(c Conn) {
	a.events <- event{kind: evAttach, conn: c}
}

// Detach reports a closed or failed socket. Close and error are handled
// identically: the same cleanup path runs for both.
func (a *Actor) Detach(c Conn) {
	a.events <- event{kind: evDetach, conn: c}
}

// Inbound hands one raw frame to the actor. Messages from a single socket
// are processed in delivery order.
func (a *Actor) Inbound(c Conn, raw []byte) {
	a.events <- event{kind: evInbound, conn: c, raw: raw}
}

// Snapshot returns a copy of the room state, or an empty snapshot if the
// actor has already shut down.
func (a *Actor) Snapshot() Snapshot {
	ev := event{kind: evSnapshot, snap: make(chan Snapshot, 1)}
	select {
	case a.events <- ev:
	case <-a.stop:
		return Snapshot{RoomID: a.id}
	}
	select {
	case s := <-ev.snap:
		return s
	case <-a.stop:
		return Snapshot{RoomID: a.id}
	}
}

// confirmIdle asks the actor to shut down if it has no sockets. The run loop
// exits before the true reply is observable, so a true return means the
// actor is gone.
func (a *Actor) confirmIdle() bool {
	ev := event{kind: evReap, ok: make(chan bool, 1)}
	select {
	case a.events <- ev:
	case <-a.stop:
		return true
	}
	select {
	case ok := <-ev.ok:
		return ok
	case <-a.stop:
		return true
	}
}

func (a *Actor) handleAttach(c Conn) {
	a.conns[c] = struct{}{}
	obslog.L().Debug("room_attach",
		zap.String("room", a.id),
		zap.String("conn", c.ID()),
		zap.Int("sockets", len(a.conns)),
	)
}

func (a *Actor) handleDetach(c Conn) {
	if _, ok := a.conns[c]; !ok {
		return
	}
	delete(a.conns, c)
	if b := c.Binding(); b != nil && a.byVisitor[b.VisitorID] == c {
		a.removeVisitor(c, b.VisitorID)
	}
	obslog.L().Debug("room_detach",
		zap.String("room", a.id),
		zap.String("conn", c.ID()),
		zap.Int("sockets", len(a.conns)),
	)
	if len(a.conns) == 0 && a.onIdle != nil {
		a.onIdle(a)
	}
}

// removeVisitor takes a visitor out of every scope: all game sessions they
// are part of, then room presence. Exactly one game_leave per affected game
// and one leave are broadcast. A visitor should be in at most one game, but
// the scan does not assume that.
func (a *Actor) removeVisitor(excl Conn, visitorID string) {
	for _, itemID := range a.gameList() {
		g := a.games[itemID]
		if !g.removePlayer(visitorID) {
			continue
		}
		if len(g.Players) == 0 {
			delete(a.games, itemID)
		}
		a.broadcast(excl, gameLeaveEvent{Type: "game_leave", ItemID: itemID, VisitorID: visitorID})
	}
	delete(a.visitors, visitorID)
	delete(a.byVisitor, visitorID)
	a.broadcast(excl, leaveEvent{Type: "leave", VisitorID: visitorID})
	obslog.L().Info("room_leave",
		zap.String("room", a.id),
		zap.String("visitor_id", visitorID),
		zap.Int("visitors", len(a.visitors)),
	)
}

func (a *Actor) snapshot() Snapshot {
	s := Snapshot{RoomID: a.id, Visitors: []*VisitorState{}, Games: []GameSnapshot{}}
	for _, v := range a.visitorList() {
		s.Visitors = append(s.Visitors, v.copy())
	}
	for _, itemID := range a.gameList() {
		s.Games = append(s.Games, GameSnapshot{ItemID: itemID, State: a.games[itemID].view()})
	}
	return s
}
