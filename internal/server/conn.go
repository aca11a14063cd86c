package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/roomhub/internal/obslog"
	"github.com/park285/roomhub/internal/room"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const (
	writeTimeout  = 10 * time.Second
	sendQueueSize = 64
)

// wsConn adapts a nhooyr websocket to room.Conn. Outbound frames go through
// a buffered queue drained by a write pump so the room actor never blocks on
// a peer; a peer that cannot keep up is disconnected.
type wsConn struct {
	id   string
	c    *websocket.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once

	// written once by the actor at join time, read only on the actor
	// goroutine afterwards
	binding *room.Binding
}

func newWSConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		id:   uuid.NewString(),
		c:    c,
		out:  make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

func (wc *wsConn) ID() string { return wc.id }

func (wc *wsConn) Binding() *room.Binding { return wc.binding }

func (wc *wsConn) Bind(b room.Binding) { wc.binding = &b }

func (wc *wsConn) Send(payload []byte) bool {
	select {
	case <-wc.done:
		return false
	default:
	}
	select {
	case wc.out <- payload:
		return true
	default:
		// the peer is not draining its queue; drop it rather than stall
		obslog.L().Warn("ws_send_overflow", zap.String("conn", wc.id))
		wc.Close(room.ClosePolicy, "send queue overflow")
		return false
	}
}

func (wc *wsConn) Close(code int, reason string) {
	wc.once.Do(func() {
		close(wc.done)
		_ = wc.c.Close(websocket.StatusCode(code), reason)
	})
}

func (wc *wsConn) writePump() {
	for {
		select {
		case <-wc.done:
			return
		case payload := <-wc.out:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := wc.c.Write(ctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				// the read loop observes the failure and detaches
				return
			}
		}
	}
}
