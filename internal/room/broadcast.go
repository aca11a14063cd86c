package room

import (
	"encoding/json"

	"github.com/park285/roomhub/internal/gamekind"
	"github.com/park285/roomhub/internal/obslog"
	"go.uber.org/zap"
)

// Outbound envelopes. Each mirrors the inbound shape of its kind so clients
// render broadcasts and their own sends identically.
type stateEvent struct {
	Type     string          `json:"type"`
	Visitors []*VisitorState `json:"visitors"`
}

type joinEvent struct {
	Type        string `json:"type"`
	VisitorID   string `json:"visitorId"`
	DisplayName string `json:"displayName"`
	IsOwner     bool   `json:"isOwner"`
}

type leaveEvent struct {
	Type      string `json:"type"`
	VisitorID string `json:"visitorId"`
}

type renameEvent struct {
	Type        string `json:"type"`
	VisitorID   string `json:"visitorId"`
	DisplayName string `json:"displayName"`
}

type cursorEvent struct {
	Type      string  `json:"type"`
	VisitorID string  `json:"visitorId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	InMenu    bool    `json:"inMenu"`
	TabbedOut bool    `json:"tabbedOut"`
	InGame    *string `json:"inGame"`
}

type chatEvent struct {
	Type      string  `json:"type"`
	VisitorID string  `json:"visitorId"`
	Text      *string `json:"text"`
}

type gameStateEvent struct {
	Type   string        `json:"type"`
	ItemID string        `json:"itemId"`
	State  GameStateView `json:"state"`
}

type gameJoinEvent struct {
	Type        string `json:"type"`
	ItemID      string `json:"itemId"`
	VisitorID   string `json:"visitorId"`
	DisplayName string `json:"displayName"`
	CursorColor string `json:"cursorColor,omitempty"`
	Seat        string `json:"seat,omitempty"`
}

type gameLeaveEvent struct {
	Type      string `json:"type"`
	ItemID    string `json:"itemId"`
	VisitorID string `json:"visitorId"`
}

type gameCursorEvent struct {
	Type      string  `json:"type"`
	ItemID    string  `json:"itemId"`
	VisitorID string  `json:"visitorId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Color     string  `json:"color,omitempty"`
	Hint      string  `json:"hint,omitempty"`
}

type gameMoveEvent struct {
	Type      string            `json:"type"`
	ItemID    string            `json:"itemId"`
	VisitorID string            `json:"visitorId"`
	Position  gamekind.Position `json:"position"`
}

func marshalEvent(v any) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		obslog.L().Error("room_marshal_event", zap.Error(err))
		return nil
	}
	return payload
}

// broadcast serializes once and fans out to every joined socket in the room
// except exclude (nil to include everyone). Per-socket failures are absorbed:
// delivery is at-most-once, best-effort, and one dead peer never aborts
// delivery to the rest.
func (a *Actor) broadcast(exclude Conn, v any) {
	payload := marshalEvent(v)
	if payload == nil {
		return
	}
	for c := range a.conns {
		if c == exclude || c.Binding() == nil {
			continue
		}
		_ = c.Send(payload)
	}
}

// broadcastGame fans out to the participants of one game session only.
func (a *Actor) broadcastGame(g *GameSession, exclude Conn, v any) {
	payload := marshalEvent(v)
	if payload == nil {
		return
	}
	for _, p := range g.Players {
		c, ok := a.byVisitor[p.VisitorID]
		if !ok || c == exclude {
			continue
		}
		_ = c.Send(payload)
	}
}

// unicast sends one message to a single socket.
func (a *Actor) unicast(c Conn, v any) {
	if payload := marshalEvent(v); payload != nil {
		_ = c.Send(payload)
	}
}
