package admin

import (
	"bytes"
	"encoding/json"
	"image/png"
	"testing"

	"github.com/valyala/fasthttp"

	"github.com/park285/roomhub/internal/room"
)

type stubConn struct {
	id      string
	binding *room.Binding
}

func (s *stubConn) ID() string                    { return s.id }
func (s *stubConn) Send(payload []byte) bool      { return true }
func (s *stubConn) Close(code int, reason string) {}
func (s *stubConn) Binding() *room.Binding        { return s.binding }
func (s *stubConn) Bind(b room.Binding)           { s.binding = &b }

func request(t *testing.T, h fasthttp.RequestHandler, uri, token string) *fasthttp.RequestCtx {
	t.Helper()
	var req fasthttp.Request
	req.SetRequestURI(uri)
	if token != "" {
		req.Header.Set("X-Admin-Token", token)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	h(ctx)
	return ctx
}

func populatedDirectory(t *testing.T) *room.Directory {
	t.Helper()
	dir := room.NewDirectory()
	c := &stubConn{id: "c1"}
	a := dir.Connect("lobby", c)
	a.Inbound(c, []byte(`{"type":"join","visitorId":"alice","displayName":"Alice","isOwner":true}`))
	if s := a.Snapshot(); len(s.Visitors) != 1 {
		t.Fatalf("fixture join failed: %+v", s)
	}
	return dir
}

func TestAdminRequiresToken(t *testing.T) {
	h := New("secret", room.NewDirectory()).Handler()
	if ctx := request(t, h, "http://host/admin/rooms", ""); ctx.Response.StatusCode() != fasthttp.StatusForbidden {
		t.Fatalf("missing token: got %d", ctx.Response.StatusCode())
	}
	if ctx := request(t, h, "http://host/admin/rooms", "wrong"); ctx.Response.StatusCode() != fasthttp.StatusForbidden {
		t.Fatalf("wrong token: got %d", ctx.Response.StatusCode())
	}
	if ctx := request(t, h, "http://host/admin/rooms", "secret"); ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("valid token: got %d", ctx.Response.StatusCode())
	}
}

func TestAdminDisabledWithoutToken(t *testing.T) {
	h := New("", room.NewDirectory()).Handler()
	if ctx := request(t, h, "http://host/admin/rooms", ""); ctx.Response.StatusCode() != fasthttp.StatusForbidden {
		t.Fatalf("expected 403 when no token configured, got %d", ctx.Response.StatusCode())
	}
}

func TestAdminRoomList(t *testing.T) {
	h := New("secret", populatedDirectory(t)).Handler()
	ctx := request(t, h, "http://host/admin/rooms", "secret")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("got %d", ctx.Response.StatusCode())
	}
	var body struct {
		Rooms []struct {
			RoomID   string `json:"roomId"`
			Visitors int    `json:"visitors"`
		} `json:"rooms"`
	}
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(body.Rooms) != 1 || body.Rooms[0].RoomID != "lobby" || body.Rooms[0].Visitors != 1 {
		t.Fatalf("unexpected list: %+v", body)
	}
}

func TestAdminRoomSnapshot(t *testing.T) {
	h := New("secret", populatedDirectory(t)).Handler()
	ctx := request(t, h, "http://host/admin/rooms/lobby", "secret")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("got %d", ctx.Response.StatusCode())
	}
	var snap room.Snapshot
	if err := json.Unmarshal(ctx.Response.Body(), &snap); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if snap.RoomID != "lobby" || len(snap.Visitors) != 1 || snap.Visitors[0].VisitorID != "alice" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestAdminUnknownRoom(t *testing.T) {
	h := New("secret", room.NewDirectory()).Handler()
	if ctx := request(t, h, "http://host/admin/rooms/nope", "secret"); ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("got %d", ctx.Response.StatusCode())
	}
	if ctx := request(t, h, "http://host/elsewhere", "secret"); ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("got %d", ctx.Response.StatusCode())
	}
}

func TestAdminMinimap(t *testing.T) {
	h := New("secret", populatedDirectory(t)).Handler()
	ctx := request(t, h, "http://host/admin/rooms/lobby/map.png?size=256", "secret")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("got %d", ctx.Response.StatusCode())
	}
	img, err := png.Decode(bytes.NewReader(ctx.Response.Body()))
	if err != nil {
		t.Fatalf("body is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 256 {
		t.Fatalf("unexpected size: %v", img.Bounds())
	}
}
