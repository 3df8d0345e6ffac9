// Package api exposes the qlove services over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/bbernstein/qlove-go/internal/fixture"
	"github.com/bbernstein/qlove-go/internal/logger"
	"github.com/bbernstein/qlove-go/internal/services/cues"
	"github.com/bbernstein/qlove-go/internal/services/dmx"
	"github.com/bbernstein/qlove-go/internal/services/export"
	"github.com/bbernstein/qlove-go/internal/services/maps"
	"github.com/bbernstein/qlove-go/internal/services/network"
	"github.com/bbernstein/qlove-go/internal/services/presets"
	"github.com/bbernstein/qlove-go/internal/services/pubsub"
	"github.com/bbernstein/qlove-go/internal/services/qlab"
	"github.com/bbernstein/qlove-go/internal/services/textimport"
)

// maxUploadBytes bounds request bodies, sound files included.
const maxUploadBytes = 50 << 20

var errBadRequest = errors.New("bad request")

// Handler holds the services behind the HTTP API.
type Handler struct {
	Maps    *maps.Service
	Cues    *cues.Service
	Export  *export.Service
	DMX     *dmx.Service
	PubSub  *pubsub.PubSub
	Version string

	// Overridable for tests.
	ListPorts      func() ([]dmx.PortInfo, error)
	ListInterfaces func() ([]network.Interface, error)

	log      *logger.Log
	upgrader websocket.Upgrader
	started  time.Time
}

// NewHandler creates a handler. log may be nil.
func NewHandler(m *maps.Service, c *cues.Service, e *export.Service, d *dmx.Service, ps *pubsub.PubSub, log *logger.Log) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{
		Maps:           m,
		Cues:           c,
		Export:         e,
		DMX:            d,
		PubSub:         ps,
		Version:        "dev",
		ListPorts:      dmx.ListSerialPorts,
		ListInterfaces: network.List,
		log:            log.Module("api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		started: time.Now(),
	}
}

// Router builds the chi router with every route mounted.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Get("/ws/dmx", h.streamDMX)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequestSize(maxUploadBytes))

		r.Get("/maps", h.listMaps)
		r.Post("/maps", h.createMap)
		r.Get("/maps/active", h.activeMap)
		r.Put("/maps/active", h.switchMap)

		r.Route("/maps/{mapID}", func(r chi.Router) {
			r.Get("/", h.getMap)
			r.Patch("/", h.renameMap)
			r.Delete("/", h.deleteMap)
			r.Post("/duplicate", h.duplicateMap)

			r.Get("/fixtures", h.listFixtures)
			r.Post("/fixtures", h.addFixture)
			r.Delete("/fixtures", h.clearFixtures)
			r.Post("/fixtures/values", h.setFixtureValue)
			r.Post("/fixtures/paste", h.pasteProperties)
			r.Post("/fixtures/import-text", h.importTextFixture)
			r.Get("/fixtures/{fixtureID}", h.getFixture)
			r.Patch("/fixtures/{fixtureID}", h.updateFixture)
			r.Delete("/fixtures/{fixtureID}", h.removeFixture)
			r.Put("/fixtures/{fixtureID}/position", h.moveFixture)
			r.Get("/fixtures/{fixtureID}/properties", h.copyProperties)

			r.Get("/presets", h.listPresets)
			r.Post("/presets", h.saveAsPreset)
			r.Delete("/presets/{presetID}", h.deletePreset)
			r.Post("/presets/{presetID}/fixtures", h.createFromPreset)

			r.Get("/universe", h.universe)
			r.Get("/conflicts", h.conflicts)
			r.Post("/send", h.sendToDMX)
			r.Get("/qlab", h.qlabCode)

			r.Get("/export", h.exportMap)
			r.Get("/configuration", h.exportConfiguration)

			r.Get("/cues", h.listCues)
			r.Post("/cues", h.addCue)
			r.Put("/cues/order", h.reorderCues)
			r.Get("/cues/{cueID}", h.getCue)
			r.Patch("/cues/{cueID}", h.updateCue)
			r.Delete("/cues/{cueID}", h.deleteCue)
			r.Post("/cues/{cueID}/duplicate", h.duplicateCue)
			r.Post("/cues/{cueID}/capture", h.captureCue)
			r.Post("/cues/{cueID}/execute", h.executeCue)
			r.Put("/cues/{cueID}/sound", h.attachSound)
			r.Get("/cues/{cueID}/sound", h.getSound)
			r.Delete("/cues/{cueID}/sound", h.deleteSound)
		})

		r.Get("/export", h.exportAll)
		r.Post("/import", h.importMaps)
		r.Post("/configuration", h.loadConfiguration)
		r.Post("/textimport", h.parseText)

		r.Get("/dmx/status", h.dmxStatus)
		r.Post("/dmx/connect", h.dmxConnect)
		r.Post("/dmx/disconnect", h.dmxDisconnect)
		r.Post("/dmx/clear", h.dmxClear)
		r.Get("/dmx/ports", h.serialPorts)
		r.Get("/network/interfaces", h.networkInterfaces)
	})
	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.With(logger.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start),
		}).Debug("request")
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.Version,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	})
}

type errorResponse struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *textimport.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, maps.ErrMapNotFound),
		errors.Is(err, maps.ErrFixtureNotFound),
		errors.Is(err, cues.ErrCueNotFound),
		errors.Is(err, presets.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, maps.ErrLastMap):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, maps.ErrNoFixtures),
		errors.Is(err, cues.ErrInvalidType),
		errors.Is(err, cues.ErrInvalidOrder),
		errors.Is(err, cues.ErrNotLightCue),
		errors.Is(err, cues.ErrNoLightState),
		errors.Is(err, cues.ErrUnsupportedAudio),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, export.ErrInvalidDocument),
		errors.Is(err, qlab.ErrNoFixtures),
		errors.Is(err, qlab.ErrInvalidFixture),
		errors.Is(err, fixture.ErrNoCompatibleAttributes):
		return http.StatusBadRequest
	case errors.Is(err, dmx.ErrNotConnected),
		errors.Is(err, dmx.ErrDeviceGone),
		errors.Is(err, dmx.ErrNoSerialPort):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	var verr *textimport.ValidationError
	if errors.As(err, &verr) {
		resp.Messages = verr.Messages
	}
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	writeJSON(w, status, resp)
}

// decode reads a JSON body into v.
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
