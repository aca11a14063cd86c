package room

import (
	"testing"
	"time"
)

// sync round-trips through the actor's event loop so every previously
// enqueued event has been handled when it returns.
func syncActor(a *Actor) { _ = a.Snapshot() }

func waitReaped(t *testing.T, d *Directory, roomID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := d.Lookup(roomID); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %q was never reaped", roomID)
}

func TestDirectoryLazyCreate(t *testing.T) {
	d := NewDirectory()
	if _, ok := d.Lookup("lobby"); ok {
		t.Fatalf("room exists before first connection")
	}
	c := &fakeConn{id: "c1"}
	a := d.Connect("lobby", c)
	if got, ok := d.Lookup("lobby"); !ok || got != a {
		t.Fatalf("room not registered")
	}
	if a2 := d.Connect("lobby", &fakeConn{id: "c2"}); a2 != a {
		t.Fatalf("second connection created a second actor")
	}
}

func TestDirectoryRoomsAreIndependent(t *testing.T) {
	d := NewDirectory()
	c1 := &fakeConn{id: "c1"}
	c2 := &fakeConn{id: "c2"}
	a1 := d.Connect("east", c1)
	a2 := d.Connect("west", c2)
	if a1 == a2 {
		t.Fatalf("distinct rooms share an actor")
	}

	a1.Inbound(c1, []byte(`{"type":"join","visitorId":"alice","displayName":"Alice","isOwner":false}`))
	syncActor(a1)
	syncActor(a2)

	if s := a1.Snapshot(); len(s.Visitors) != 1 {
		t.Fatalf("east missing its visitor: %+v", s)
	}
	if s := a2.Snapshot(); len(s.Visitors) != 0 {
		t.Fatalf("join leaked into west: %+v", s)
	}

	ids := d.RoomIDs()
	if len(ids) != 2 || ids[0] != "east" || ids[1] != "west" {
		t.Fatalf("unexpected room list: %v", ids)
	}
}

func TestDirectoryReapsEmptyRoom(t *testing.T) {
	d := NewDirectory()
	c := &fakeConn{id: "c1"}
	a := d.Connect("lobby", c)

	a.Inbound(c, []byte(`{"type":"join","visitorId":"alice","displayName":"Alice","isOwner":false}`))
	syncActor(a)
	a.Detach(c)
	waitReaped(t, d, "lobby")

	// a dead actor answers snapshots with an empty shell instead of hanging
	if s := a.Snapshot(); s.RoomID != "lobby" || len(s.Visitors) != 0 {
		t.Fatalf("unexpected post-shutdown snapshot: %+v", s)
	}

	// the id is reusable; a new connection gets a fresh actor
	c2 := &fakeConn{id: "c2"}
	a2 := d.Connect("lobby", c2)
	if a2 == a {
		t.Fatalf("reaped actor was resurrected")
	}
	if s := a2.Snapshot(); len(s.Visitors) != 0 {
		t.Fatalf("fresh room carried old state: %+v", s)
	}
}

func TestDirectoryKeepsRoomWithRemainingSocket(t *testing.T) {
	d := NewDirectory()
	c1 := &fakeConn{id: "c1"}
	c2 := &fakeConn{id: "c2"}
	a := d.Connect("lobby", c1)
	d.Connect("lobby", c2)

	a.Detach(c1)
	syncActor(a)
	time.Sleep(20 * time.Millisecond)
	if _, ok := d.Lookup("lobby"); !ok {
		t.Fatalf("room reaped while a socket remained")
	}
}
