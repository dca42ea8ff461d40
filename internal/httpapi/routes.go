package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/outsider-backend/internal/archive"
	"github.com/DoyleJ11/outsider-backend/internal/hub"
	"github.com/DoyleJ11/outsider-backend/internal/ident"
	"github.com/DoyleJ11/outsider-backend/internal/logging"
	"github.com/DoyleJ11/outsider-backend/internal/ws"
)

type Deps struct {
	Hub      *hub.Hub
	Recorder archive.Recorder
	Logger   *zap.Logger
	WS       ws.Options
}

func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Recorder == nil {
		d.Recorder = archive.Nop{}
	}
	if d.WS.Logger == nil {
		d.WS.Logger = d.Logger
	}
	newID := d.WS.NewRoomID
	if newID == nil {
		newID = ident.NewRoomID
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(d.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Hub, d.WS))

	// Plain JSON routes get a deadline; the websocket route must not.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Post("/rooms", SuggestRoom(d.Hub, newID, d.Logger))
		r.Get("/rooms/{id}", GetRoom(d.Hub))
		r.Get("/results", Results(d.Recorder, d.Logger))
	})
	return r
}
