package orchestrator

import (
	"encoding/json"
	"net/http"
	"strconv"
)

type selectionResp struct {
	Selected []int `json:"selected"`
	Order    []int `json:"order"`
}

func (o *Orchestrator) handleToggle(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil {
		http.Error(w, "invalid page number", http.StatusBadRequest)
		return
	}
	if err := s.State().Toggle(page); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResp{Selected: s.State().Selected(), Order: s.State().Order()})
}

func (o *Orchestrator) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	s.State().SelectAll()
	writeJSON(w, http.StatusOK, selectionResp{Selected: s.State().Selected(), Order: s.State().Order()})
}

func (o *Orchestrator) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	s.State().ClearSelection()
	writeJSON(w, http.StatusOK, selectionResp{Selected: s.State().Selected(), Order: s.State().Order()})
}

type reorderReq struct {
	Order []int `json:"order"`
}

// handleReorder replaces the display order wholesale. The payload must
// be a true permutation of the current order; anything else is rejected
// and the state stays as it was.
func (o *Orchestrator) handleReorder(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()
	var req reorderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := s.State().Reorder(req.Order); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResp{Selected: s.State().Selected(), Order: s.State().Order()})
}
