package room

// Close codes handed to the transport. Values follow RFC 6455 so the
// websocket layer can pass them through unchanged.
const (
	CloseInvalid  = 1007 // malformed or schema-violating payload
	ClosePolicy   = 1008 // identity hijack and other policy violations
	CloseTooLarge = 1009 // frame over the protocol size ceiling
)

// Binding is the serializable identity record attached to a socket at join
// time. It is owned by the socket, not by the room: if the room's in-memory
// maps are cleared while the socket stays open, presence is resynthesized
// from the binding on the next message.
type Binding struct {
	VisitorID   string `json:"visitorId"`
	DisplayName string `json:"displayName"`
	IsOwner     bool   `json:"isOwner"`
}

// Conn is one live socket attached to a room. Send must be non-blocking and
// best-effort; a slow or dead peer must never stall the room actor. All
// methods are invoked from the actor goroutine only, except Close which may
// also be called by the transport.
type Conn interface {
	// ID identifies the physical socket, not the visitor.
	ID() string
	// Send enqueues a serialized frame. Returns false if the peer is gone;
	// failures are ignored by callers (at-most-once delivery).
	Send(payload []byte) bool
	// Close tears the socket down with the given code and reason.
	Close(code int, reason string)
	// Binding returns the identity record, or nil before the first join.
	Binding() *Binding
	// Bind attaches the identity record. Called at most once per socket.
	Bind(b Binding)
}
