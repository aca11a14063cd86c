package protocol

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
)

// Wire limits. MaxMessageBytes is also enforced as the transport read limit
// so oversized frames are dropped before they are ever parsed.
const (
	MaxMessageBytes = 8 << 10

	MaxVisitorIDLen = 128
	MaxNameLen      = 64
	MaxChatLen      = 500
	MaxItemIDLen    = 128
	MaxColorLen     = 32
	MaxMoveLen      = 16
	MaxHintLen      = 64
	MaxFENLen       = 100

	MaxCoord = 10000
)

// Inbound message kinds.
const (
	KindJoin       = "join"
	KindLeave      = "leave"
	KindRename     = "rename"
	KindCursor     = "cursor"
	KindChat       = "chat"
	KindGameJoin   = "game_join"
	KindGameLeave  = "game_leave"
	KindGameCursor = "game_cursor"
	KindGameMove   = "game_move"
)

// Server-push kinds. Never valid inbound.
const (
	KindState     = "state"
	KindGameState = "game_state"
)

// Game signal values carried by game_move instead of a board move.
const (
	SignalResign      = "resign"
	SignalDrawOffer   = "draw_offer"
	SignalDrawAccept  = "draw_accept"
	SignalDrawDecline = "draw_decline"
)

var (
	// ErrBadPayload means the frame was not valid JSON. Fatal to the connection.
	ErrBadPayload = errors.New("bad payload")
	// ErrInvalid means valid JSON that violates the message schema. Fatal.
	ErrInvalid = errors.New("invalid message")
	// ErrOversized means the raw frame exceeded MaxMessageBytes. Fatal.
	ErrOversized = errors.New("message too large")
	// ErrUnknownType means a well-formed message of a kind this server does
	// not know. Logged and ignored so newer clients keep their session.
	ErrUnknownType = errors.New("unknown message type")
)

// Message is one of the closed set of typed inbound messages.
type Message interface {
	Kind() string
	Visitor() string
}

type Join struct {
	VisitorID   string `json:"visitorId"`
	DisplayName string `json:"displayName"`
	IsOwner     bool   `json:"isOwner"`
}

type Leave struct {
	VisitorID string `json:"visitorId"`
}

type Rename struct {
	VisitorID   string `json:"visitorId"`
	DisplayName string `json:"displayName"`
}

// Cursor is a partial presence update. Optional fields are nil when absent;
// InGameSet distinguishes an explicit null (clear) from an absent field.
type Cursor struct {
	VisitorID string
	X, Y      float64
	InMenu    *bool
	TabbedOut *bool
	InGame    *string
	InGameSet bool
}

// Chat carries the visitor's live chat text. Nil means "stopped chatting",
// an empty string means "typing with no content yet".
type Chat struct {
	VisitorID string
	Text      *string
}

type GameJoin struct {
	VisitorID   string `json:"visitorId"`
	DisplayName string `json:"displayName"`
	ItemID      string `json:"itemId"`
	CursorColor string `json:"cursorColor,omitempty"`
	Seat        string `json:"seat,omitempty"`
}

type GameLeave struct {
	VisitorID string `json:"visitorId"`
	ItemID    string `json:"itemId"`
}

type GameCursor struct {
	VisitorID string  `json:"visitorId"`
	ItemID    string  `json:"itemId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Color     string  `json:"color,omitempty"`
	Hint      string  `json:"hint,omitempty"`
}

// GameMove carries either a board move or a game signal, never both.
// FEN is the client's claimed resulting position; it is presentational only
// and never trusted over the server's own transition function.
type GameMove struct {
	VisitorID string `json:"visitorId"`
	ItemID    string `json:"itemId"`
	Move      string `json:"move,omitempty"`
	Signal    string `json:"signal,omitempty"`
	FEN       string `json:"fen,omitempty"`
}

func (Join) Kind() string       { return KindJoin }
func (Leave) Kind() string      { return KindLeave }
func (Rename) Kind() string     { return KindRename }
func (Cursor) Kind() string     { return KindCursor }
func (Chat) Kind() string       { return KindChat }
func (GameJoin) Kind() string   { return KindGameJoin }
func (GameLeave) Kind() string  { return KindGameLeave }
func (GameCursor) Kind() string { return KindGameCursor }
func (GameMove) Kind() string   { return KindGameMove }

func (m Join) Visitor() string       { return m.VisitorID }
func (m Leave) Visitor() string      { return m.VisitorID }
func (m Rename) Visitor() string     { return m.VisitorID }
func (m Cursor) Visitor() string     { return m.VisitorID }
func (m Chat) Visitor() string       { return m.VisitorID }
func (m GameJoin) Visitor() string   { return m.VisitorID }
func (m GameLeave) Visitor() string  { return m.VisitorID }
func (m GameCursor) Visitor() string { return m.VisitorID }
func (m GameMove) Visitor() string   { return m.VisitorID }

// Decode parses and validates one inbound frame. Validation is structural and
// bounds-checking only; business rules (free seats, legal moves) are the room
// actor's concern.
func Decode(raw []byte) (Message, error) {
	if len(raw) > MaxMessageBytes {
		return nil, ErrOversized
	}
	var probe struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, ErrBadPayload
	}
	if probe.Type == nil {
		return nil, ErrInvalid
	}

	switch *probe.Type {
	case KindJoin:
		return decodeJoin(raw)
	case KindLeave:
		var m Leave
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, ErrInvalid
		}
		if !validID(m.VisitorID) {
			return nil, ErrInvalid
		}
		return m, nil
	case KindRename:
		var m Rename
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, ErrInvalid
		}
		if !validID(m.VisitorID) || !validName(m.DisplayName) {
			return nil, ErrInvalid
		}
		return m, nil
	case KindCursor:
		return decodeCursor(raw)
	case KindChat:
		return decodeChat(raw)
	case KindGameJoin:
		var m GameJoin
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, ErrInvalid
		}
		if !validID(m.VisitorID) || !validName(m.DisplayName) || !validID(m.ItemID) {
			return nil, ErrInvalid
		}
		if len(m.CursorColor) > MaxColorLen || !validSeat(m.Seat) {
			return nil, ErrInvalid
		}
		return m, nil
	case KindGameLeave:
		var m GameLeave
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, ErrInvalid
		}
		if !validID(m.VisitorID) || !validID(m.ItemID) {
			return nil, ErrInvalid
		}
		return m, nil
	case KindGameCursor:
		var m GameCursor
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, ErrInvalid
		}
		if !validID(m.VisitorID) || !validID(m.ItemID) || !finite(m.X) || !finite(m.Y) {
			return nil, ErrInvalid
		}
		if len(m.Color) > MaxColorLen || len(m.Hint) > MaxHintLen {
			return nil, ErrInvalid
		}
		return m, nil
	case KindGameMove:
		var m GameMove
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, ErrInvalid
		}
		if !validID(m.VisitorID) || !validID(m.ItemID) || len(m.FEN) > MaxFENLen {
			return nil, ErrInvalid
		}
		// exactly one of move or signal
		if (m.Move == "") == (m.Signal == "") {
			return nil, ErrInvalid
		}
		if len(m.Move) > MaxMoveLen {
			return nil, ErrInvalid
		}
		if m.Signal != "" && !validSignal(m.Signal) {
			return nil, ErrInvalid
		}
		return m, nil
	case KindState, KindGameState:
		// server-push kinds are never accepted inbound
		return nil, ErrInvalid
	default:
		return nil, ErrUnknownType
	}
}

func decodeJoin(raw []byte) (Message, error) {
	var aux struct {
		VisitorID   *string `json:"visitorId"`
		DisplayName *string `json:"displayName"`
		IsOwner     *bool   `json:"isOwner"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return nil, ErrInvalid
	}
	if aux.VisitorID == nil || aux.DisplayName == nil || aux.IsOwner == nil {
		return nil, ErrInvalid
	}
	if !validID(*aux.VisitorID) || !validName(*aux.DisplayName) {
		return nil, ErrInvalid
	}
	return Join{VisitorID: *aux.VisitorID, DisplayName: *aux.DisplayName, IsOwner: *aux.IsOwner}, nil
}

func decodeCursor(raw []byte) (Message, error) {
	var aux struct {
		VisitorID string          `json:"visitorId"`
		X         *float64        `json:"x"`
		Y         *float64        `json:"y"`
		InMenu    *bool           `json:"inMenu"`
		TabbedOut *bool           `json:"tabbedOut"`
		InGame    json.RawMessage `json:"inGame"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return nil, ErrInvalid
	}
	if !validID(aux.VisitorID) || aux.X == nil || aux.Y == nil {
		return nil, ErrInvalid
	}
	if !finite(*aux.X) || !finite(*aux.Y) {
		return nil, ErrInvalid
	}
	m := Cursor{VisitorID: aux.VisitorID, X: *aux.X, Y: *aux.Y, InMenu: aux.InMenu, TabbedOut: aux.TabbedOut}
	if aux.InGame != nil {
		m.InGameSet = true
		var ref *string
		if err := json.Unmarshal(aux.InGame, &ref); err != nil {
			return nil, ErrInvalid
		}
		if ref != nil && !validID(*ref) {
			return nil, ErrInvalid
		}
		m.InGame = ref
	}
	return m, nil
}

func decodeChat(raw []byte) (Message, error) {
	var aux struct {
		VisitorID string          `json:"visitorId"`
		Text      json.RawMessage `json:"text"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return nil, ErrInvalid
	}
	if !validID(aux.VisitorID) || aux.Text == nil {
		return nil, ErrInvalid
	}
	var text *string
	if err := json.Unmarshal(aux.Text, &text); err != nil {
		return nil, ErrInvalid
	}
	if text != nil && len(*text) > MaxChatLen {
		t := (*text)[:MaxChatLen]
		text = &t
	}
	return Chat{VisitorID: aux.VisitorID, Text: text}, nil
}

func validID(s string) bool {
	return s != "" && len(s) <= MaxVisitorIDLen
}

func validName(s string) bool {
	return strings.TrimSpace(s) != "" && len(s) <= MaxNameLen
}

func validSeat(s string) bool {
	return s == "" || s == "white" || s == "black"
}

func validSignal(s string) bool {
	switch s {
	case SignalResign, SignalDrawOffer, SignalDrawAccept, SignalDrawDecline:
		return true
	}
	return false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && math.Abs(f) <= MaxCoord
}
