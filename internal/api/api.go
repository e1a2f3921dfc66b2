package api

import (
	"github.com/gorilla/mux"

	"media-gallery/internal/captioner"
	"media-gallery/internal/database"
	"media-gallery/internal/history"
	"media-gallery/internal/kvstore"
	"media-gallery/internal/videoopt"
)

// Enqueuer submits background jobs and returns their task IDs. Satisfied by
// queue.Client.
type Enqueuer interface {
	EnqueueCaption(job captioner.Job) (string, error)
	EnqueueVideo(job videoopt.Job) (string, error)
}

type Handlers struct {
	db      *database.Database
	tracker *history.Tracker
	jobs    Enqueuer
	states  kvstore.Store
}

func New(db *database.Database, tracker *history.Tracker, jobs Enqueuer, states kvstore.Store) *Handlers {
	return &Handlers{
		db:      db,
		tracker: tracker,
		jobs:    jobs,
		states:  states,
	}
}

// Router builds the control-surface routes.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search", h.Search).Methods("GET")
	api.HandleFunc("/media", h.ListMedia).Methods("GET")
	api.HandleFunc("/views", h.RecordView).Methods("POST")
	api.HandleFunc("/views", h.ViewStatus).Methods("GET")
	api.HandleFunc("/jobs/caption", h.SubmitCaptionJob).Methods("POST")
	api.HandleFunc("/jobs/video", h.SubmitVideoJob).Methods("POST")
	api.HandleFunc("/tasks/{id}", h.TaskStatus).Methods("GET")

	return r
}
