package room

import (
	"sort"
	"sync"

	"github.com/park285/roomhub/internal/obslog"
	"go.uber.org/zap"
)

// Directory maps room public identifiers to their actor, exactly one per id,
// created lazily on first connection and reaped once the last socket is
// gone. Rooms are fully independent; the directory lock only guards the map,
// never room state.
type Directory struct {
	mu    sync.Mutex
	rooms map[string]*Actor
}

func NewDirectory() *Directory {
	return &Directory{rooms: map[string]*Actor{}}
}

// Connect attaches the socket to the room's actor, creating the actor if
// needed. Holding the lock across attach guarantees the actor cannot be
// reaped between lookup and enqueue.
func (d *Directory) Connect(roomID string, c Conn) *Actor {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.rooms[roomID]
	if !ok {
		a = newActor(roomID, d.scheduleReap)
		d.rooms[roomID] = a
		go a.run()
		obslog.L().Info("room_open", zap.String("room", roomID))
	}
	a.attach(c)
	return a
}

// Lookup returns the live actor for a room, if any.
func (d *Directory) Lookup(roomID string) (*Actor, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.rooms[roomID]
	return a, ok
}

// RoomIDs lists the ids of live rooms in sorted order.
func (d *Directory) RoomIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.rooms))
	for id := range d.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// scheduleReap runs off the actor goroutine; reaping synchronously from the
// event loop would deadlock on the idle confirmation.
func (d *Directory) scheduleReap(a *Actor) {
	go d.reap(a)
}

func (d *Directory) reap(a *Actor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rooms[a.id] != a {
		return
	}
	// a socket may have connected between the idle report and now; the actor
	// stays when it says so
	if !a.confirmIdle() {
		return
	}
	delete(d.rooms, a.id)
	obslog.L().Info("room_close", zap.String("room", a.id))
}
