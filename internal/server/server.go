package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/park285/roomhub/internal/config"
	"github.com/park285/roomhub/internal/obslog"
	"github.com/park285/roomhub/internal/protocol"
	"github.com/park285/roomhub/internal/room"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// Server is the public HTTP surface: one websocket endpoint per room plus a
// health check. Plain (non-upgrade) requests to the room endpoint get the
// same JSON status body as the health check.
type Server struct {
	cfg *config.AppConfig
	dir *room.Directory
	mux *http.ServeMux
}

func New(cfg *config.AppConfig, dir *room.Directory) *Server {
	s := &Server{cfg: cfg, dir: dir, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /rooms/{room}/ws", s.handleRoom)
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "roomhub"})
}

func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	roomID := strings.TrimSpace(r.PathValue("room"))
	if roomID == "" || len(roomID) > protocol.MaxVisitorIDLen {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid room id"})
		return
	}
	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "room": roomID})
		return
	}

	opts := &websocket.AcceptOptions{OriginPatterns: s.cfg.AllowedOrigins}
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" {
			opts = &websocket.AcceptOptions{InsecureSkipVerify: true}
			break
		}
	}
	c, err := websocket.Accept(w, r, opts)
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.String("room", roomID), zap.Error(err))
		return
	}
	// frames over the protocol ceiling are rejected before parsing: the
	// library fails the read and closes with 1009
	c.SetReadLimit(protocol.MaxMessageBytes)

	conn := newWSConn(c)
	actor := s.dir.Connect(roomID, conn)
	obslog.L().Debug("ws_open", zap.String("room", roomID), zap.String("conn", conn.ID()))

	go conn.writePump()

	ctx := r.Context()
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		if typ != websocket.MessageText {
			continue
		}
		actor.Inbound(conn, data)
	}

	// client close and network error run the identical cleanup path
	actor.Detach(conn)
	conn.Close(int(websocket.StatusNormalClosure), "")
	obslog.L().Debug("ws_closed", zap.String("room", roomID), zap.String("conn", conn.ID()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
