package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	if c.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/rooms", c.listRooms)
		r.Get("/rooms/{room-id}", c.getRoomState)
		r.Route("/v1", func(r chi.Router) {
			r.Get("/healthz", c.healthz)
			r.Get("/ws", c.connect)
			r.Get("/ws/room/{room-id}", c.connectToRoom)
		})
	})

	if c.staticDir != "" {
		r.Get("/room/{room-id}", c.roomPage)
		r.Handle("/*", http.FileServer(http.Dir(c.staticDir)))
	}

	return r
}
