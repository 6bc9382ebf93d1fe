package orchestrator

import (
	"encoding/json"
	"image/png"
	"net/http"
	"strconv"

	"github.com/local/pdfstudio/internal/scheduler"
)

// handleThumbnail serves the current surface of a page as PNG. A page
// the scheduler has not reached yet is rendered on demand; pages keep
// whatever the fallback ladder last put on the surface, so this never
// 500s on a rendering failure.
func (o *Orchestrator) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil {
		http.Error(w, "invalid page number", http.StatusBadRequest)
		return
	}
	if page < 1 || page > s.Handle().PageCount() {
		http.Error(w, "page out of range", http.StatusNotFound)
		return
	}

	if !s.Scheduler().IsLoaded(page) {
		s.Scheduler().Schedule(r.Context(), []int{page})
	}

	surf := s.Surface(page)
	img := surf.Image()
	if img == nil {
		http.Error(w, "page not rendered", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Render-Status", surf.Status().String())
	_ = png.Encode(w, img)
}

type viewportReq struct {
	Viewport scheduler.Viewport `json:"viewport"`
	Layout   scheduler.Layout   `json:"layout"`
}

type viewportResp struct {
	Rendered []int             `json:"rendered"`
	Loaded   []int             `json:"loaded"`
	Statuses map[string]string `json:"statuses"`
}

// handleViewport runs one scheduling pass for the reported scroll
// position. Already-rendered pages are untouched.
func (o *Orchestrator) handleViewport(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()
	var req viewportReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	visible := s.Scheduler().Visible(s.State().Order(), req.Viewport, req.Layout)
	newly := s.Scheduler().Schedule(r.Context(), visible)

	statuses := make(map[string]string, len(visible))
	for _, p := range visible {
		statuses[strconv.Itoa(p)] = s.Surface(p).Status().String()
	}
	writeJSON(w, http.StatusOK, viewportResp{
		Rendered: newly,
		Loaded:   s.Scheduler().Loaded(),
		Statuses: statuses,
	})
}
