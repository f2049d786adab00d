package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new HTTP router with configured routes, middleware, and handlers.
// It sets up session, playlist and file routes, the websocket feed, health check,
// and Prometheus metrics endpoint.
func NewRouter(
	sessionService SessionServiceI,
	playlistService PlaylistServiceI,
	opener FileOpenerI,
	hub *Hub,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	sessionHandler := NewSessionHandler(sessionService, logger)
	playlistHandler := NewPlaylistHandler(playlistService, logger)
	fileHandler := NewFileHandler(opener, logger)

	r.Post("/downloads", sessionHandler.StartDownload)

	r.Route("/session", func(r chi.Router) {
		r.Get("/", sessionHandler.GetCurrent)
		r.Get("/ws", hub.HandleWebSocket)
	})
	r.Get("/sessions/{sessionID}", sessionHandler.GetSession)

	r.Post("/playlists", playlistHandler.LoadPlaylist)
	r.Route("/playlist", func(r chi.Router) {
		r.Get("/", playlistHandler.GetPlaylist)
		r.Post("/items/{itemID}/toggle", playlistHandler.ToggleItem)
		r.Post("/toggle-all", playlistHandler.ToggleAll)
		r.Post("/download", playlistHandler.DownloadSelected)
	})

	r.Route("/files", func(r chi.Router) {
		r.Post("/open", fileHandler.OpenFile)
		r.Post("/reveal", fileHandler.RevealInFolder)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
