package room

import (
	"errors"

	"github.com/park285/roomhub/internal/gamekind"
	"github.com/park285/roomhub/internal/obslog"
	"github.com/park285/roomhub/internal/protocol"
	"go.uber.org/zap"
)

func (a *Actor) handleInbound(c Conn, raw []byte) {
	if _, ok := a.conns[c]; !ok {
		// frame raced a detach; the socket is already gone
		return
	}
	msg, err := protocol.Decode(raw)
	if err != nil {
		switch {
		case errors.Is(err, protocol.ErrUnknownType):
			// forward compatibility: newer clients keep their session
			obslog.L().Debug("room_unknown_message", zap.String("room", a.id), zap.String("conn", c.ID()))
		case errors.Is(err, protocol.ErrBadPayload):
			c.Close(CloseInvalid, "bad payload")
		case errors.Is(err, protocol.ErrOversized):
			c.Close(CloseTooLarge, "message too large")
		default:
			c.Close(CloseInvalid, "invalid message")
		}
		return
	}

	if j, ok := msg.(protocol.Join); ok {
		a.handleJoin(c, j)
		return
	}

	// every other kind requires a binding that matches the asserted identity
	b := c.Binding()
	if b == nil || b.VisitorID != msg.Visitor() {
		obslog.L().Warn("room_identity_mismatch",
			zap.String("room", a.id),
			zap.String("conn", c.ID()),
			zap.String("visitor_id", msg.Visitor()),
		)
		c.Close(ClosePolicy, "identity not bound")
		return
	}

	switch m := msg.(type) {
	case protocol.Leave:
		a.removeVisitor(c, m.VisitorID)
	case protocol.Rename:
		v := a.touch(c, m.VisitorID)
		v.DisplayName = m.DisplayName
		a.broadcast(c, renameEvent{Type: protocol.KindRename, VisitorID: m.VisitorID, DisplayName: m.DisplayName})
	case protocol.Cursor:
		a.handleCursor(c, m)
	case protocol.Chat:
		v := a.touch(c, m.VisitorID)
		v.Chat = m.Text
		a.broadcast(c, chatEvent{Type: protocol.KindChat, VisitorID: m.VisitorID, Text: m.Text})
	case protocol.GameJoin:
		a.handleGameJoin(c, m)
	case protocol.GameLeave:
		a.handleGameLeave(c, m)
	case protocol.GameCursor:
		a.handleGameCursor(c, m)
	case protocol.GameMove:
		a.handleGameMove(c, m)
	}
}

func (a *Actor) handleJoin(c Conn, m protocol.Join) {
	if b := c.Binding(); b != nil && b.VisitorID != m.VisitorID {
		// a socket binds to one identity for its lifetime
		c.Close(ClosePolicy, "identity already bound")
		return
	}
	if other, ok := a.byVisitor[m.VisitorID]; ok && other != c {
		// identity hijack: a different live socket already owns this visitor
		// id; the newcomer is dropped and the original binding is untouched
		obslog.L().Warn("room_join_hijack",
			zap.String("room", a.id),
			zap.String("visitor_id", m.VisitorID),
			zap.String("conn", c.ID()),
		)
		c.Close(ClosePolicy, "identity already bound")
		return
	}

	if c.Binding() == nil {
		c.Bind(Binding{VisitorID: m.VisitorID, DisplayName: m.DisplayName, IsOwner: m.IsOwner})
	}
	// the owner flag is immutable for the connection's lifetime
	owner := c.Binding().IsOwner

	a.byVisitor[m.VisitorID] = c
	a.visitors[m.VisitorID] = newVisitorState(m.VisitorID, m.DisplayName, owner)

	// snapshot first, join broadcast second: the new client must have the
	// baseline before anyone's echo of its own join can reach it
	a.unicast(c, stateEvent{Type: protocol.KindState, Visitors: a.visitorList()})
	a.broadcast(c, joinEvent{Type: protocol.KindJoin, VisitorID: m.VisitorID, DisplayName: m.DisplayName, IsOwner: owner})

	obslog.L().Info("room_join",
		zap.String("room", a.id),
		zap.String("visitor_id", m.VisitorID),
		zap.Bool("owner", owner),
		zap.Int("visitors", len(a.visitors)),
	)
}

// touch returns the visitor's presence entry, resynthesizing it from the
// socket's binding when the registry has no entry (the recovery path after
// the room's in-memory state was lost while the socket stayed open).
func (a *Actor) touch(c Conn, visitorID string) *VisitorState {
	if v, ok := a.visitors[visitorID]; ok {
		return v
	}
	b := c.Binding()
	v := newVisitorState(b.VisitorID, b.DisplayName, b.IsOwner)
	a.visitors[visitorID] = v
	a.byVisitor[visitorID] = c
	obslog.L().Info("room_presence_rebuilt", zap.String("room", a.id), zap.String("visitor_id", visitorID))
	return v
}

func (a *Actor) handleCursor(c Conn, m protocol.Cursor) {
	v := a.touch(c, m.VisitorID)
	v.X, v.Y = m.X, m.Y
	if m.InMenu != nil {
		v.InMenu = *m.InMenu
	}
	if m.TabbedOut != nil {
		v.TabbedOut = *m.TabbedOut
	}
	if m.InGameSet {
		v.InGame = m.InGame
	}
	a.broadcast(c, cursorEvent{
		Type:      protocol.KindCursor,
		VisitorID: v.VisitorID,
		X:         v.X,
		Y:         v.Y,
		InMenu:    v.InMenu,
		TabbedOut: v.TabbedOut,
		InGame:    v.InGame,
	})
}

func (a *Actor) handleGameJoin(c Conn, m protocol.GameJoin) {
	v := a.touch(c, m.VisitorID)
	g, ok := a.games[m.ItemID]
	if !ok {
		g = newGameSession(m.ItemID, a.kind)
		a.games[m.ItemID] = g
	}
	added := g.addPlayer(m.VisitorID, m.DisplayName, m.CursorColor, m.Seat)
	item := m.ItemID
	v.InGame = &item

	// full game state to the joiner first, then the join event to the room
	// (non-participants may show who is playing)
	a.unicast(c, gameStateEvent{Type: protocol.KindGameState, ItemID: m.ItemID, State: g.view()})
	a.broadcast(c, gameJoinEvent{
		Type:        protocol.KindGameJoin,
		ItemID:      m.ItemID,
		VisitorID:   m.VisitorID,
		DisplayName: m.DisplayName,
		CursorColor: m.CursorColor,
		Seat:        m.Seat,
	})
	if added {
		obslog.L().Info("game_join",
			zap.String("room", a.id),
			zap.String("item_id", m.ItemID),
			zap.String("visitor_id", m.VisitorID),
			zap.String("seat", m.Seat),
			zap.Int("players", len(g.Players)),
		)
	}
}

func (a *Actor) handleGameLeave(c Conn, m protocol.GameLeave) {
	g, ok := a.games[m.ItemID]
	if !ok {
		return
	}
	if !g.removePlayer(m.VisitorID) {
		return
	}
	if len(g.Players) == 0 {
		// no lingering empty games: absence is the default starting state
		delete(a.games, m.ItemID)
	}
	if v, ok := a.visitors[m.VisitorID]; ok && v.InGame != nil && *v.InGame == m.ItemID {
		v.InGame = nil
	}
	a.broadcast(c, gameLeaveEvent{Type: protocol.KindGameLeave, ItemID: m.ItemID, VisitorID: m.VisitorID})
	obslog.L().Info("game_leave",
		zap.String("room", a.id),
		zap.String("item_id", m.ItemID),
		zap.String("visitor_id", m.VisitorID),
		zap.Int("players", len(g.Players)),
	)
}

func (a *Actor) handleGameCursor(c Conn, m protocol.GameCursor) {
	g, ok := a.games[m.ItemID]
	if !ok {
		// the game ended or never started; not an error
		return
	}
	if g.player(m.VisitorID) == nil {
		return
	}
	cur, ok := g.Cursors[m.VisitorID]
	if !ok {
		cur = &GameCursor{VisitorID: m.VisitorID}
		g.Cursors[m.VisitorID] = cur
	}
	cur.X, cur.Y = m.X, m.Y
	if m.Color != "" {
		cur.Color = m.Color
	}
	cur.Hint = m.Hint
	a.broadcastGame(g, c, gameCursorEvent{
		Type:      protocol.KindGameCursor,
		ItemID:    m.ItemID,
		VisitorID: m.VisitorID,
		X:         m.X,
		Y:         m.Y,
		Color:     cur.Color,
		Hint:      m.Hint,
	})
}

func (a *Actor) handleGameMove(c Conn, m protocol.GameMove) {
	g, ok := a.games[m.ItemID]
	if !ok {
		return
	}
	p := g.player(m.VisitorID)
	if p == nil || p.Seat == "" {
		return
	}
	// only the authoritative claimant of the seat may act for it
	if g.seatHolder(p.Seat) != m.VisitorID {
		obslog.L().Debug("game_move_not_authoritative",
			zap.String("room", a.id),
			zap.String("item_id", m.ItemID),
			zap.String("visitor_id", m.VisitorID),
			zap.String("seat", p.Seat),
		)
		return
	}

	next, err := g.Kind.Apply(g.Position, p.Seat, gamekind.MoveInput{Move: m.Move, Signal: m.Signal})
	if err != nil {
		// business-rule rejection: drop silently, mutate nothing, broadcast
		// nothing; the client reconciles against the next authoritative state
		obslog.L().Debug("game_move_rejected",
			zap.String("room", a.id),
			zap.String("item_id", m.ItemID),
			zap.String("visitor_id", m.VisitorID),
			zap.Error(err),
		)
		return
	}
	g.Position = next
	a.broadcastGame(g, nil, gameMoveEvent{
		Type:      protocol.KindGameMove,
		ItemID:    m.ItemID,
		VisitorID: m.VisitorID,
		Position:  next,
	})
}
