package orchestrator

import (
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

type documentResp struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Pages     int    `json:"pages"`
	Size      int64  `json:"size"`
	Order     []int  `json:"order"`
	Selected  []int  `json:"selected"`
	Loaded    []int  `json:"loaded"`
}

func (o *Orchestrator) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	if err := r.ParseMultipartForm(o.deps.Detector.MaxBytes()); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return "", nil, false
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "reading upload failed", http.StatusBadRequest)
		return "", nil, false
	}
	if err := o.deps.Detector.ValidatePDF(hdr.Filename, data); err != nil {
		writeError(w, err)
		return "", nil, false
	}
	return hdr.Filename, data, true
}

func (o *Orchestrator) handleUpload(w http.ResponseWriter, r *http.Request) {
	name, data, ok := o.readUpload(w, r)
	if !ok {
		return
	}

	s, err := o.deps.Sessions.Open(name, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentResp{
		SessionID: s.ID,
		Name:      s.Name,
		Pages:     s.Handle().PageCount(),
		Size:      s.Size,
		Order:     s.State().Order(),
		Selected:  s.State().Selected(),
		Loaded:    s.Scheduler().Loaded(),
	})
}

func (o *Orchestrator) handleDocumentInfo(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, documentResp{
		SessionID: s.ID,
		Name:      s.Name,
		Pages:     s.Handle().PageCount(),
		Size:      s.Size,
		Order:     s.State().Order(),
		Selected:  s.State().Selected(),
		Loaded:    s.Scheduler().Loaded(),
	})
}

// handleReplace swaps the session's document for a newly picked file.
// Order, selection and rendered surfaces all reset.
func (o *Orchestrator) handleReplace(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	name, data, ok := o.readUpload(w, r)
	if !ok {
		return
	}

	s, err := o.deps.Sessions.Replace(s.ID, name, data)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Info().Str("session", s.ID).Str("file", name).Msg("document replaced")
	writeJSON(w, http.StatusOK, documentResp{
		SessionID: s.ID,
		Name:      s.Name,
		Pages:     s.Handle().PageCount(),
		Size:      s.Size,
		Order:     s.State().Order(),
		Selected:  s.State().Selected(),
		Loaded:    s.Scheduler().Loaded(),
	})
}

func (o *Orchestrator) handleCloseDocument(w http.ResponseWriter, r *http.Request) {
	s, ok := o.session(w, r)
	if !ok {
		return
	}
	o.deps.Sessions.Close(s.ID)
	w.WriteHeader(http.StatusNoContent)
}
