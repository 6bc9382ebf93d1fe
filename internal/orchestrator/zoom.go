package orchestrator

import (
	"encoding/json"
	"image/png"
	"net/http"
)

type zoomResp struct {
	Page     int     `json:"page"`
	Scale    float64 `json:"scale"`
	Selected []int   `json:"selected"`
}

func (o *Orchestrator) zoomState(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, zoomResp{
		Page:     s.Inspector().Page(),
		Scale:    s.Inspector().Scale(),
		Selected: s.State().Selected(),
	})
}

type zoomPageReq struct {
	Page int `json:"page"`
}

func (o *Orchestrator) handleZoomOpen(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()
	var req zoomPageReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := s.Inspector().Open(req.Page); err != nil {
		writeError(w, err)
		return
	}
	o.zoomState(w, r)
}

// handleZoomPage switches the inspected page without touching the zoom
// scale (arrow-key navigation).
func (o *Orchestrator) handleZoomPage(w http.ResponseWriter, r *http.Request) {
	o.handleZoomOpen(w, r)
}

func (o *Orchestrator) handleZoomIn(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	s.Inspector().ZoomIn()
	o.zoomState(w, r)
}

func (o *Orchestrator) handleZoomOut(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	s.Inspector().ZoomOut()
	o.zoomState(w, r)
}

// handleZoomToggle flips selection of the inspected page in the shared
// selection state, so the grid reflects it immediately.
func (o *Orchestrator) handleZoomToggle(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	if err := s.Inspector().ToggleSelection(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	o.zoomState(w, r)
}

func (o *Orchestrator) handleZoomClose(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	s.Inspector().Close()
	w.WriteHeader(http.StatusNoContent)
}

// handleZoomRender rasterizes the inspected page at the current zoom
// scale. Zoom renders are independent of thumbnail surfaces.
func (o *Orchestrator) handleZoomRender(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	img, err := s.Inspector().Render(s.Handle())
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_ = png.Encode(w, img)
}
