package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/bracket-battle/internal/store"
	"github.com/DoyleJ11/bracket-battle/internal/ws"
)

// Registry is the session lookup the API shares with the websocket handler.
type Registry = ws.Registry

type Deps struct {
	Hub            Registry
	Store          store.Store
	Logger         *zap.Logger
	PublicURL      string
	OriginPatterns []string
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	publicURL := strings.TrimRight(d.PublicURL, "/")

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Hub, ws.Options{OriginPatterns: d.OriginPatterns, Logger: log.Named("ws")}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/brackets", CreateBracket(d.Store, log))
		r.Get("/unique/{code}", CodeUnique(d.Store, log))
		r.Get("/public", PublicBrackets(d.Store, log))
		r.Get("/sessions/{id}/qr.png", SessionQR(d.Hub, publicURL, log))
	})
	return r
}
