package room

import "sort"

// VisitorState is the live presence of one connected visitor. It is ephemeral
// and rebuilt from join messages after any cold start; only the room actor
// mutates it.
type VisitorState struct {
	VisitorID   string  `json:"visitorId"`
	DisplayName string  `json:"displayName"`
	IsOwner     bool    `json:"isOwner"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Chat        *string `json:"chat"`
	CursorColor string  `json:"cursorColor,omitempty"`
	InMenu      bool    `json:"inMenu"`
	TabbedOut   bool    `json:"tabbedOut"`
	InGame      *string `json:"inGame"`
}

func newVisitorState(id, name string, owner bool) *VisitorState {
	return &VisitorState{VisitorID: id, DisplayName: name, IsOwner: owner}
}

func (v *VisitorState) copy() *VisitorState {
	c := *v
	if v.Chat != nil {
		s := *v.Chat
		c.Chat = &s
	}
	if v.InGame != nil {
		s := *v.InGame
		c.InGame = &s
	}
	return &c
}

// visitorList returns the registry contents sorted by visitor id so state
// snapshots are deterministic.
func (a *Actor) visitorList() []*VisitorState {
	out := make([]*VisitorState, 0, len(a.visitors))
	for _, v := range a.visitors {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VisitorID < out[j].VisitorID })
	return out
}
