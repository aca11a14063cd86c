// Package admin serves the ops endpoints on a separate listener, gated by a
// shared-secret header. It only ever reads room state, via actor snapshots.
package admin

import (
	"crypto/subtle"
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/park285/roomhub/internal/obslog"
	"github.com/park285/roomhub/internal/render"
	"github.com/park285/roomhub/internal/room"
	"go.uber.org/zap"
)

const tokenHeader = "X-Admin-Token"

type Server struct {
	token string
	dir   *room.Directory
}

func New(token string, dir *room.Directory) *Server {
	return &Server{token: strings.TrimSpace(token), dir: dir}
}

// Handler returns the fasthttp request handler for the admin listener.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !s.authorized(ctx) {
			writeError(ctx, fasthttp.StatusForbidden, "forbidden")
			return
		}

		path := string(ctx.Path())
		switch {
		case path == "/admin/rooms":
			s.handleRooms(ctx)
		case strings.HasPrefix(path, "/admin/rooms/"):
			rest := strings.TrimPrefix(path, "/admin/rooms/")
			if id, ok := strings.CutSuffix(rest, "/map.png"); ok {
				s.handleMap(ctx, id)
				return
			}
			s.handleRoom(ctx, rest)
		default:
			writeError(ctx, fasthttp.StatusNotFound, "not found")
		}
	}
}

func (s *Server) authorized(ctx *fasthttp.RequestCtx) bool {
	if s.token == "" {
		// no token configured means the admin surface is disabled outright
		return false
	}
	got := ctx.Request.Header.Peek(tokenHeader)
	return subtle.ConstantTimeCompare(got, []byte(s.token)) == 1
}

type roomInfo struct {
	RoomID   string `json:"roomId"`
	Visitors int    `json:"visitors"`
	Games    int    `json:"games"`
}

func (s *Server) handleRooms(ctx *fasthttp.RequestCtx) {
	infos := []roomInfo{}
	for _, id := range s.dir.RoomIDs() {
		a, ok := s.dir.Lookup(id)
		if !ok {
			continue
		}
		snap := a.Snapshot()
		infos = append(infos, roomInfo{RoomID: snap.RoomID, Visitors: len(snap.Visitors), Games: len(snap.Games)})
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"rooms": infos})
}

func (s *Server) handleRoom(ctx *fasthttp.RequestCtx, roomID string) {
	a, ok := s.dir.Lookup(roomID)
	if !ok {
		writeError(ctx, fasthttp.StatusNotFound, "room not found")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, a.Snapshot())
}

func (s *Server) handleMap(ctx *fasthttp.RequestCtx, roomID string) {
	a, ok := s.dir.Lookup(roomID)
	if !ok {
		writeError(ctx, fasthttp.StatusNotFound, "room not found")
		return
	}
	size := ctx.QueryArgs().GetUintOrZero("size")
	img, err := render.Minimap(a.Snapshot().Visitors, size)
	if err != nil {
		obslog.L().Error("admin_minimap_error", zap.String("room", roomID), zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, "render failed")
		return
	}
	ctx.SetContentType("image/png")
	ctx.SetStatusCode(fasthttp.StatusOK)
	_, _ = ctx.Write(img)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "encode failed")
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	_, _ = ctx.Write(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, msg string) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	_, _ = ctx.Write([]byte(`{"error":"` + msg + `"}`))
}
