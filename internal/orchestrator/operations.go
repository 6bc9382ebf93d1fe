package orchestrator

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfstudio/internal/compress"
	"github.com/local/pdfstudio/internal/dispatcher"
	"github.com/local/pdfstudio/internal/source"
	"github.com/local/pdfstudio/internal/store"
)

type operationReq struct {
	SessionID string `json:"session_id"`
	Op        string `json:"op"`
	Level     string `json:"level,omitempty"`
}

type operationResp struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// handleCreateOperation freezes the session's order and selection into
// a job and enqueues it. Later edits in the session do not affect the
// queued job.
func (o *Orchestrator) handleCreateOperation(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req operationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	s, ok := o.deps.Sessions.Get(req.SessionID)
	if !ok {
		http.Error(w, "document session not found", http.StatusNotFound)
		return
	}

	snap := s.State().Snapshot()
	job := dispatcher.NewJob(req.Op)
	job.Order = snap.Order
	job.Selected = snap.Selected

	switch req.Op {
	case dispatcher.OpRemove:
		if len(snap.KeepAfterRemoval()) == 0 {
			http.Error(w, "removing every page would leave an empty document", http.StatusUnprocessableEntity)
			return
		}
	case dispatcher.OpExtract:
		if len(snap.Selected) == 0 {
			http.Error(w, "no pages selected for extraction", http.StatusUnprocessableEntity)
			return
		}
	case dispatcher.OpCompress:
		switch compress.Level(req.Level) {
		case compress.LevelLow, compress.LevelMedium, compress.LevelHigh:
			job.Level = req.Level
		default:
			http.Error(w, fmt.Sprintf("unknown compression level %q", req.Level), http.StatusUnprocessableEntity)
			return
		}
	case dispatcher.OpLock:
		http.Error(w, "lock is not supported", http.StatusNotImplemented)
		return
	default:
		http.Error(w, fmt.Sprintf("unknown operation %q", req.Op), http.StatusUnprocessableEntity)
		return
	}

	ref, err := source.Spool(o.deps.SpoolDir, s.Name, s.Data())
	if err != nil {
		writeError(w, err)
		return
	}
	job.Inputs = []dispatcher.JobInput{{Name: s.Name, Ref: ref}}

	o.enqueue(w, r, job)
}

// handleMerge accepts multiple uploads and queues a merge in the given
// file order.
func (o *Orchestrator) handleMerge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(o.deps.Detector.MaxBytes()); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) < 2 {
		http.Error(w, "merge needs at least two files", http.StatusUnprocessableEntity)
		return
	}

	job := dispatcher.NewJob(dispatcher.OpMerge)
	for _, hdr := range files {
		f, err := hdr.Open()
		if err != nil {
			http.Error(w, "reading upload failed", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, "reading upload failed", http.StatusBadRequest)
			return
		}
		if err := o.deps.Detector.ValidatePDF(hdr.Filename, data); err != nil {
			writeError(w, err)
			return
		}
		ref, err := source.Spool(o.deps.SpoolDir, hdr.Filename, data)
		if err != nil {
			writeError(w, err)
			return
		}
		job.Inputs = append(job.Inputs, dispatcher.JobInput{Name: hdr.Filename, Ref: ref})
	}

	o.enqueue(w, r, job)
}

func (o *Orchestrator) enqueue(w http.ResponseWriter, r *http.Request, job dispatcher.Job) {
	now := time.Now()
	if err := o.deps.Status.Set(r.Context(), job.ID, store.Status{Status: store.StatusQueued, Op: job.Op, Start: &now}); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("status set failed")
	}
	if err := o.deps.Queue.Enqueue(r.Context(), job.Encode()); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("enqueue failed")
		http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
		return
	}
	log.Info().Str("job_id", job.ID).Str("op", job.Op).Int("inputs", len(job.Inputs)).Msg("operation queued")
	writeJSON(w, http.StatusAccepted, operationResp{JobID: job.ID, Status: store.StatusQueued})
}

func (o *Orchestrator) handleOperationStatus(w http.ResponseWriter, r *http.Request) {
	st, ok, err := o.deps.Status.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "operation not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (o *Orchestrator) handleOperationResult(w http.ResponseWriter, r *http.Request) {
	st, ok, err := o.deps.Status.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "operation not found", http.StatusNotFound)
		return
	}
	if st.Status != store.StatusDone || st.Result == "" {
		http.Error(w, fmt.Sprintf("operation is %s, no result available", st.Status), http.StatusConflict)
		return
	}

	data, err := o.deps.Artifacts.Load(r.Context(), st.Result)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(st.Result)))
	_, _ = w.Write(data)
}

func (o *Orchestrator) handleCancelOperation(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if err := o.deps.Queue.CancelJob(r.Context(), jobID); err != nil {
		writeError(w, err)
		return
	}
	log.Info().Str("job_id", jobID).Msg("operation cancel requested")
	writeJSON(w, http.StatusAccepted, operationResp{JobID: jobID, Status: store.StatusCancelled})
}
