package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"media-gallery/internal/captioner"
	"media-gallery/internal/database"
	"media-gallery/internal/logging"
	"media-gallery/internal/queue"
	"media-gallery/internal/tokenizer"
	"media-gallery/internal/videoopt"
)

func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// Search runs a substring-style query over the index. The query is broken
// into the same n-grams the index stores, so partial words match.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Query parameter q is required", http.StatusBadRequest)
		return
	}

	grams := tokenizer.Tokenize(query, tokenizer.DefaultMinGram, tokenizer.DefaultMaxGram)
	if grams == "" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]database.Item{})
		return
	}

	items, err := h.db.Search(r.Context(), grams)
	if err != nil {
		logging.Error("Search for %q failed: %v", query, err)
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []database.Item{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *Handlers) ListMedia(w http.ResponseWriter, r *http.Request) {
	items, err := h.db.ListMedia(r.Context())
	if err != nil {
		logging.Error("Failed to list media: %v", err)
		http.Error(w, "Failed to list media", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []database.Item{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

type viewRequest struct {
	UserID   string `json:"userId"`
	ItemPath string `json:"itemPath"`
}

func (h *Handlers) RecordView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.ItemPath == "" {
		http.Error(w, "userId and itemPath are required", http.StatusBadRequest)
		return
	}

	if err := h.tracker.RecordView(r.Context(), req.UserID, req.ItemPath); err != nil {
		logging.Error("Failed to record view of %s: %v", req.ItemPath, err)
		http.Error(w, "Failed to record view", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ViewStatus reports whether a user has viewed a path, and when. Absent
// records return 404 so clients can distinguish unseen from seen.
func (h *Handlers) ViewStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	itemPath := r.URL.Query().Get("itemPath")
	if userID == "" || itemPath == "" {
		http.Error(w, "userId and itemPath are required", http.StatusBadRequest)
		return
	}

	viewedAt, ok, err := h.tracker.Viewed(r.Context(), userID, itemPath)
	if err != nil {
		logging.Error("Failed to look up view of %s: %v", itemPath, err)
		http.Error(w, "Failed to look up view", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Not viewed", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(database.ViewRecord{
		UserID:   userID,
		ItemPath: itemPath,
		ViewedAt: viewedAt,
	})
}

func (h *Handlers) SubmitCaptionJob(w http.ResponseWriter, r *http.Request) {
	var job captioner.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if job.ImagePath == "" {
		http.Error(w, "imagePath is required", http.StatusBadRequest)
		return
	}

	taskID, err := h.jobs.EnqueueCaption(job)
	if err != nil {
		logging.Error("Failed to enqueue caption job for %s: %v", job.ImagePath, err)
		http.Error(w, "Failed to queue job", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"taskId": taskID})
}

func (h *Handlers) SubmitVideoJob(w http.ResponseWriter, r *http.Request) {
	var job videoopt.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if job.FilePath == "" {
		http.Error(w, "filePath is required", http.StatusBadRequest)
		return
	}

	taskID, err := h.jobs.EnqueueVideo(job)
	if err != nil {
		logging.Error("Failed to enqueue video job for %s: %v", job.FilePath, err)
		http.Error(w, "Failed to queue job", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"taskId": taskID})
}

func (h *Handlers) TaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	state, ok := queue.GetTaskState(r.Context(), h.states, taskID)
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		json.NewEncoder(w).Encode(map[string]string{
			"taskId": taskID,
			"status": queue.StatePending,
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"taskId": taskID,
		"status": state.Status,
		"result": state.Result,
	})
}
