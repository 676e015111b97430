// Package web exposes the wiki over HTTP: page CRUD, history and diff
// reads, and talk topics with live fan-out over websockets. Handlers
// are thin: every rule lives in the engine, the web layer only decodes
// requests, applies timeouts and shapes responses.
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/quillwiki/quill/internal/talk"
	"github.com/quillwiki/quill/internal/wiki"
)

// Server wires the engine and talk service into an HTTP router.
type Server struct {
	engine   *wiki.Engine
	talk     *talk.Service
	hub      *talk.Hub
	upgrader websocket.Upgrader
}

// NewServer builds the HTTP surface over a wiki.
func NewServer(e *wiki.Engine, ts *talk.Service, hub *talk.Hub) *Server {
	return &Server{
		engine: e,
		talk:   ts,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Router assembles the route tree. Request deadlines live here rather
// than in the engine: the engine honours whatever context it is given.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/wiki/{title}", func(r chi.Router) {
		r.Get("/", s.getPage)
		r.Put("/", s.putPage)
		r.Delete("/", s.deletePage)
		r.Post("/rename", s.renamePage)
		r.Get("/history", s.getHistory)
		r.Get("/text/{version}", s.getTextAt)
		r.Get("/diff/{version}", s.getDiff)
		r.Get("/members", s.getMembers)
	})

	r.Route("/talk/{title}", func(r chi.Router) {
		r.Get("/", s.getTopic)
		r.Post("/", s.postMessage)
		r.Get("/ws", s.talkSocket)
	})

	r.Get("/export", s.getExport)
	r.Post("/import", s.postImport)

	return r
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondErr(w http.ResponseWriter, status int, err error) {
	respond(w, status, map[string]string{"error": err.Error()})
}
