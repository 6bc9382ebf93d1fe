// Package orchestrator is the HTTP surface of the service: document
// sessions, page thumbnails, selection and order edits, the zoom
// inspector and the async operation lifecycle.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/local/pdfstudio/internal/artifact"
	"github.com/local/pdfstudio/internal/document"
	"github.com/local/pdfstudio/internal/filetype"
	"github.com/local/pdfstudio/internal/pagestate"
	"github.com/local/pdfstudio/internal/rebuild"
	"github.com/local/pdfstudio/internal/session"
	"github.com/local/pdfstudio/internal/store"
)

type Queue interface {
	Enqueue(ctx context.Context, payload []byte) error
	CancelJob(ctx context.Context, jobID string) error
}

type StatusStore interface {
	Set(ctx context.Context, jobID string, st store.Status) error
	Get(ctx context.Context, jobID string) (store.Status, bool, error)
}

type TourStore interface {
	SetCompleted(ctx context.Context, tourID string) error
	Completed(ctx context.Context, tourID string) (bool, error)
}

type Dependencies struct {
	Sessions  *session.Manager
	Detector  *filetype.Detector
	Queue     Queue
	Status    StatusStore
	Tours     TourStore
	Artifacts *artifact.Store
	SpoolDir  string
}

type Orchestrator struct {
	deps Dependencies
}

func New(deps Dependencies) *Orchestrator {
	return &Orchestrator{deps: deps}
}

func (o *Orchestrator) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/documents", o.handleUpload)
	mux.HandleFunc("GET /api/documents/{id}", o.handleDocumentInfo)
	mux.HandleFunc("PUT /api/documents/{id}/file", o.handleReplace)
	mux.HandleFunc("DELETE /api/documents/{id}", o.handleCloseDocument)

	mux.HandleFunc("GET /api/documents/{id}/pages/{page}/thumbnail", o.handleThumbnail)
	mux.HandleFunc("POST /api/documents/{id}/viewport", o.handleViewport)

	mux.HandleFunc("POST /api/documents/{id}/selection/{page}/toggle", o.handleToggle)
	mux.HandleFunc("POST /api/documents/{id}/selection/all", o.handleSelectAll)
	mux.HandleFunc("DELETE /api/documents/{id}/selection", o.handleClearSelection)
	mux.HandleFunc("PUT /api/documents/{id}/order", o.handleReorder)

	mux.HandleFunc("POST /api/documents/{id}/zoom/open", o.handleZoomOpen)
	mux.HandleFunc("POST /api/documents/{id}/zoom/in", o.handleZoomIn)
	mux.HandleFunc("POST /api/documents/{id}/zoom/out", o.handleZoomOut)
	mux.HandleFunc("POST /api/documents/{id}/zoom/page", o.handleZoomPage)
	mux.HandleFunc("POST /api/documents/{id}/zoom/toggle", o.handleZoomToggle)
	mux.HandleFunc("DELETE /api/documents/{id}/zoom", o.handleZoomClose)
	mux.HandleFunc("GET /api/documents/{id}/zoom", o.handleZoomRender)

	mux.HandleFunc("POST /api/operations", o.handleCreateOperation)
	mux.HandleFunc("POST /api/merge", o.handleMerge)
	mux.HandleFunc("GET /api/operations/{id}", o.handleOperationStatus)
	mux.HandleFunc("GET /api/operations/{id}/result", o.handleOperationResult)
	mux.HandleFunc("POST /api/operations/{id}/cancel", o.handleCancelOperation)

	mux.HandleFunc("GET /api/tours/{id}", o.handleTourGet)
	mux.HandleFunc("PUT /api/tours/{id}", o.handleTourComplete)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func (o *Orchestrator) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := o.deps.Sessions.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "document session not found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		tooLarge   *filetype.TooLargeError
		badType    *filetype.UnsupportedTypeError
		loadErr    *document.LoadError
		outOfRange *pagestate.OutOfRangeError
		notPerm    *pagestate.NotPermutationError
		rebuildErr *rebuild.Error
	)
	switch {
	case errors.As(err, &tooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.As(err, &badType):
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.As(err, &loadErr):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &outOfRange):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &notPerm):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, rebuild.ErrEmptyKeepList):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &rebuildErr):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
