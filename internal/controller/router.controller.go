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
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Get("/health", c.health)
	r.Get("/ws", c.connect)
	r.Get("/videos/search", c.searchVideos)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Get("/health", c.health)
		r.Get("/ws", c.connect)
		r.Get("/videos/search", c.searchVideos)
		r.Route("/rooms/{room-id}", func(r chi.Router) {
			r.Get("/", c.getRoom)
			r.Put("/context", c.updateRoomContext)
		})
	})

	return r
}
