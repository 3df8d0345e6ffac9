package api

import (
	"net/http"

	"github.com/bbernstein/qlove-go/internal/services/dmx"
)

func (h *Handler) universe(w http.ResponseWriter, r *http.Request) {
	u, err := h.Maps.Universe(r.Context(), mapID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dmx.UniverseOutput{Universe: 1, Channels: u.Ints()})
}

func (h *Handler) conflicts(w http.ResponseWriter, r *http.Request) {
	report, err := h.Maps.Conflicts(r.Context(), mapID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) sendToDMX(w http.ResponseWriter, r *http.Request) {
	u, err := h.Maps.SendToDMX(r.Context(), mapID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"channels": u.ActiveChannels(),
		"status":   h.DMX.Status(),
	})
}

func (h *Handler) dmxStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.DMX.Status())
}

func (h *Handler) dmxConnect(w http.ResponseWriter, r *http.Request) {
	if err := h.DMX.Connect(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.DMX.Status())
}

func (h *Handler) dmxDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.DMX.Disconnect(); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.DMX.Status())
}

func (h *Handler) dmxClear(w http.ResponseWriter, r *http.Request) {
	if err := h.DMX.ClearAll(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.DMX.Status())
}

func (h *Handler) serialPorts(w http.ResponseWriter, r *http.Request) {
	ports, err := h.ListPorts()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if ports == nil {
		ports = []dmx.PortInfo{}
	}
	writeJSON(w, http.StatusOK, ports)
}

func (h *Handler) networkInterfaces(w http.ResponseWriter, r *http.Request) {
	list, err := h.ListInterfaces()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
