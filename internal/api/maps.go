package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bbernstein/qlove-go/internal/fixture"
	"github.com/bbernstein/qlove-go/internal/services/maps"
	"github.com/bbernstein/qlove-go/internal/services/qlab"
	"github.com/bbernstein/qlove-go/internal/services/textimport"
)

func mapID(r *http.Request) string     { return chi.URLParam(r, "mapID") }
func fixtureID(r *http.Request) string { return chi.URLParam(r, "fixtureID") }

func (h *Handler) listMaps(w http.ResponseWriter, r *http.Request) {
	list, err := h.Maps.ListMaps(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type nameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createMap(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	info, err := h.Maps.CreateMap(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (h *Handler) activeMap(w http.ResponseWriter, r *http.Request) {
	info, err := h.Maps.ActiveMap(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) switchMap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Maps.SwitchMap(r.Context(), req.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.activeMap(w, r)
}

func (h *Handler) getMap(w http.ResponseWriter, r *http.Request) {
	info, err := h.Maps.Map(r.Context(), mapID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) renameMap(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	info, err := h.Maps.RenameMap(r.Context(), mapID(r), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) deleteMap(w http.ResponseWriter, r *http.Request) {
	if err := h.Maps.DeleteMap(r.Context(), mapID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) duplicateMap(w http.ResponseWriter, r *http.Request) {
	info, err := h.Maps.DuplicateMap(r.Context(), mapID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (h *Handler) listFixtures(w http.ResponseWriter, r *http.Request) {
	fs, err := h.Maps.Fixtures(r.Context(), mapID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fixture.ToData(fs))
}

func (h *Handler) addFixture(w http.ResponseWriter, r *http.Request) {
	var d fixture.Data
	if err := decode(r, &d); err != nil {
		h.writeError(w, r, err)
		return
	}
	f, err := h.Maps.AddFixture(r.Context(), mapID(r), d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *Handler) clearFixtures(w http.ResponseWriter, r *http.Request) {
	if err := h.Maps.ClearFixtures(r.Context(), mapID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getFixture(w http.ResponseWriter, r *http.Request) {
	f, err := h.Maps.Fixture(r.Context(), mapID(r), fixtureID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) updateFixture(w http.ResponseWriter, r *http.Request) {
	var u maps.Update
	if err := decode(r, &u); err != nil {
		h.writeError(w, r, err)
		return
	}
	f, err := h.Maps.UpdateFixture(r.Context(), mapID(r), fixtureID(r), u)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) removeFixture(w http.ResponseWriter, r *http.Request) {
	if err := h.Maps.RemoveFixture(r.Context(), mapID(r), fixtureID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) moveFixture(w http.ResponseWriter, r *http.Request) {
	var pos fixture.Position
	if err := decode(r, &pos); err != nil {
		h.writeError(w, r, err)
		return
	}
	f, err := h.Maps.SetFixturePosition(r.Context(), mapID(r), fixtureID(r), pos.X, pos.Y)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

type valueRequest struct {
	IDs       []string `json:"ids"`
	Attribute string   `json:"attribute"`
	Value     float64  `json:"value"`
}

func (h *Handler) setFixtureValue(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	fs, err := h.Maps.SetFixtureValue(r.Context(), mapID(r), req.IDs, req.Attribute, req.Value)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fixture.ToData(fs))
}

func (h *Handler) copyProperties(w http.ResponseWriter, r *http.Request) {
	clip, err := h.Maps.CopyProperties(r.Context(), mapID(r), fixtureID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clip)
}

type pasteRequest struct {
	IDs       []string          `json:"ids"`
	Clipboard fixture.Clipboard `json:"clipboard"`
}

func (h *Handler) pasteProperties(w http.ResponseWriter, r *http.Request) {
	var req pasteRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	fs, err := h.Maps.PasteProperties(r.Context(), mapID(r), req.IDs, req.Clipboard)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fixture.ToData(fs))
}

type textRequest struct {
	Text string `json:"text"`
}

func (h *Handler) parseText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	parsed, err := textimport.Parse(req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

func (h *Handler) importTextFixture(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	parsed, err := textimport.Parse(req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	f, err := h.Maps.AddFixture(r.Context(), mapID(r), parsed.ToFixtureData())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *Handler) listPresets(w http.ResponseWriter, r *http.Request) {
	list, err := h.Maps.Presets(r.Context(), mapID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) saveAsPreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FixtureID string `json:"fixtureId"`
		Name      string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.Maps.SaveAsPreset(r.Context(), mapID(r), req.FixtureID, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) deletePreset(w http.ResponseWriter, r *http.Request) {
	if err := h.Maps.DeletePreset(r.Context(), mapID(r), chi.URLParam(r, "presetID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createFromPreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string         `json:"name"`
		Channels *fixture.Range `json:"channels"`
	}
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	f, err := h.Maps.CreateFromPreset(r.Context(), mapID(r), chi.URLParam(r, "presetID"), req.Name, req.Channels)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// selectedFixtures returns the map's fixtures, narrowed to the comma
// separated ids query parameter when present.
func (h *Handler) selectedFixtures(r *http.Request) ([]*fixture.Fixture, error) {
	fs, err := h.Maps.Fixtures(r.Context(), mapID(r))
	if err != nil {
		return nil, err
	}
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		return fs, nil
	}
	want := make(map[string]bool)
	for _, id := range strings.Split(raw, ",") {
		want[strings.TrimSpace(id)] = true
	}
	var out []*fixture.Fixture
	for _, f := range fs {
		if want[f.ID()] {
			out = append(out, f)
		}
	}
	return out, nil
}

func (h *Handler) qlabCode(w http.ResponseWriter, r *http.Request) {
	fs, err := h.selectedFixtures(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	code, err := qlab.GenerateCodeForMultiple(fs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(code))
}
