package orchestrator

import "net/http"

type tourResp struct {
	TourID    string `json:"tour_id"`
	Completed bool   `json:"completed"`
}

// Tour completion is persisted so a finished tour never auto-starts
// again, even across sessions.
func (o *Orchestrator) handleTourGet(w http.ResponseWriter, r *http.Request) {
	tourID := r.PathValue("id")
	done, err := o.deps.Tours.Completed(r.Context(), tourID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tourResp{TourID: tourID, Completed: done})
}

func (o *Orchestrator) handleTourComplete(w http.ResponseWriter, r *http.Request) {
	tourID := r.PathValue("id")
	if err := o.deps.Tours.SetCompleted(r.Context(), tourID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tourResp{TourID: tourID, Completed: true})
}
