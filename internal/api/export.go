package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
)

func (h *Handler) exportMap(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Export.ExportMap(r.Context(), mapID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) exportAll(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Export.ExportAllMaps(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) exportConfiguration(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Export.ExportConfiguration(r.Context(), mapID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) importMaps(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	replace, _ := strconv.ParseBool(r.URL.Query().Get("replaceActive"))
	stats, err := h.Export.ImportMaps(r.Context(), data, replace)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) loadConfiguration(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	stats, err := h.Export.LoadConfiguration(r.Context(), data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
