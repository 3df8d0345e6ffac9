package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bbernstein/qlove-go/internal/services/cues"
)

func cueID(r *http.Request) string { return chi.URLParam(r, "cueID") }

func (h *Handler) listCues(w http.ResponseWriter, r *http.Request) {
	list, err := h.Cues.List(r.Context(), mapID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) addCue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.Maps.Map(r.Context(), mapID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.Cues.AddCue(r.Context(), mapID(r), req.Type)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) reorderCues(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.Cues.ReorderCues(r.Context(), mapID(r), req.IDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getCue(w http.ResponseWriter, r *http.Request) {
	c, err := h.Cues.Get(r.Context(), mapID(r), cueID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) updateCue(w http.ResponseWriter, r *http.Request) {
	var u cues.Update
	if err := decode(r, &u); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.Cues.UpdateCue(r.Context(), mapID(r), cueID(r), u)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCue(w http.ResponseWriter, r *http.Request) {
	if err := h.Cues.DeleteCue(r.Context(), mapID(r), cueID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) duplicateCue(w http.ResponseWriter, r *http.Request) {
	c, err := h.Cues.DuplicateCue(r.Context(), mapID(r), cueID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) captureCue(w http.ResponseWriter, r *http.Request) {
	c, err := h.Cues.CaptureLightState(r.Context(), mapID(r), cueID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) executeCue(w http.ResponseWriter, r *http.Request) {
	exec, err := h.Cues.ExecuteCue(r.Context(), mapID(r), cueID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exec)
}

// attachSound accepts either a multipart form with a "file" field or a raw
// body with the file name in the "name" query parameter.
func (h *Handler) attachSound(w http.ResponseWriter, r *http.Request) {
	var (
		name string
		data []byte
		err  error
	)
	lastModified, _ := strconv.ParseInt(r.URL.Query().Get("lastModified"), 10, 64)

	if file, header, ferr := r.FormFile("file"); ferr == nil {
		defer file.Close()
		name = header.Filename
		data, err = io.ReadAll(file)
	} else {
		name = r.URL.Query().Get("name")
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if name == "" || len(data) == 0 {
		h.writeError(w, r, fmt.Errorf("%w: a sound file is required", errBadRequest))
		return
	}

	c, err := h.Cues.AttachSound(r.Context(), mapID(r), cueID(r), name, data, lastModified)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) getSound(w http.ResponseWriter, r *http.Request) {
	snd, err := h.Cues.Sound(r.Context(), mapID(r), cueID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if snd == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "cue has no sound"})
		return
	}
	w.Header().Set("Content-Type", snd.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(snd.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", snd.FileName))
	_, _ = w.Write(snd.Data)
}

func (h *Handler) deleteSound(w http.ResponseWriter, r *http.Request) {
	c, err := h.Cues.DeleteSound(r.Context(), mapID(r), cueID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
