package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kozaktomas/listing-builder/internal/config"
	"github.com/kozaktomas/listing-builder/internal/grouper"
	"github.com/kozaktomas/listing-builder/internal/grouping"
)

// BatchRegistry holds the live group sets, one per upload batch. Batches are
// in-memory only; the caller persists the finalized group-to-listing mapping
// elsewhere and deletes the batch when the listing flow ends.
type BatchRegistry struct {
	mu      sync.RWMutex
	batches map[string]*grouping.Store
}

// NewBatchRegistry creates an empty registry.
func NewBatchRegistry() *BatchRegistry {
	return &BatchRegistry{batches: make(map[string]*grouping.Store)}
}

// Add registers a store under a fresh batch id.
func (r *BatchRegistry) Add(store *grouping.Store) string {
	id := uuid.New().String()
	r.mu.Lock()
	r.batches[id] = store
	r.mu.Unlock()
	return id
}

// Get returns the store for a batch id, or nil.
func (r *BatchRegistry) Get(id string) *grouping.Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.batches[id]
}

// Remove discards a batch. Returns false if the id was unknown.
func (r *BatchRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[id]; !ok {
		return false
	}
	delete(r.batches, id)
	return true
}

// BatchesHandler handles batch grouping and correction endpoints
type BatchesHandler struct {
	config   *config.Config
	registry *BatchRegistry
}

// NewBatchesHandler creates a new batches handler
func NewBatchesHandler(cfg *config.Config, registry *BatchRegistry) *BatchesHandler {
	return &BatchesHandler{config: cfg, registry: registry}
}

// CreateRequest represents a grouping request for one upload batch
type CreateRequest struct {
	Paths     []string `json:"paths"`
	Strategy  string   `json:"strategy"`  // "greedy" (default) or "average"
	Threshold *float64 `json:"threshold"` // omit for the strategy default
}

// BatchResponse represents a batch and its current group set
type BatchResponse struct {
	BatchID string                 `json:"batch_id"`
	Groups  []grouping.PhotoGroup  `json:"groups"`
	Skipped []grouper.SkippedPhoto `json:"skipped,omitempty"`
}

// Create fingerprints and groups an upload batch.
func (h *BatchesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if len(req.Paths) == 0 {
		respondError(w, http.StatusBadRequest, "paths is required")
		return
	}

	// Request fields win over the configured defaults, which in turn win over
	// the built-in per-strategy defaults.
	strategyName := req.Strategy
	if strategyName == "" {
		strategyName = h.config.Grouping.Strategy
	}
	if strategyName == "" {
		strategyName = string(grouping.StrategyGreedy)
	}
	strategy, err := grouping.ParseStrategy(strategyName)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	threshold := h.config.Grouping.Threshold
	if threshold == 0 {
		threshold = h.config.DefaultThreshold(string(strategy))
	}
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	result, err := grouper.GroupPhotosByItem(r.Context(), req.Paths, grouper.Options{
		Strategy:    strategy,
		Threshold:   threshold,
		Concurrency: h.config.Grouping.Concurrency,
	})
	if err != nil {
		if errors.Is(err, grouping.ErrInvalidThreshold) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	store := grouping.NewStore(result.Groups)
	batchID := h.registry.Add(store)

	respondJSON(w, http.StatusCreated, BatchResponse{
		BatchID: batchID,
		Groups:  store.Groups(),
		Skipped: result.Skipped,
	})
}

// Get returns the current group set of a batch.
func (h *BatchesHandler) Get(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "id")
	store := h.registry.Get(batchID)
	if store == nil {
		respondError(w, http.StatusNotFound, "batch not found")
		return
	}

	respondJSON(w, http.StatusOK, BatchResponse{BatchID: batchID, Groups: store.Groups()})
}

// Delete discards a batch at the end of the listing-creation flow.
func (h *BatchesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "id")
	if !h.registry.Remove(batchID) {
		respondError(w, http.StatusNotFound, "batch not found")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// MergeRequest represents a merge correction
type MergeRequest struct {
	GroupID      string `json:"group_id"`
	OtherGroupID string `json:"other_group_id"`
}

// Merge merges two groups of a batch into one.
func (h *BatchesHandler) Merge(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "id")
	store := h.registry.Get(batchID)
	if store == nil {
		respondError(w, http.StatusNotFound, "batch not found")
		return
	}

	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.GroupID == "" || req.OtherGroupID == "" {
		respondError(w, http.StatusBadRequest, "group_id and other_group_id are required")
		return
	}

	merged, err := store.Merge(req.GroupID, req.OtherGroupID)
	if err != nil {
		if errors.Is(err, grouping.ErrGroupNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"merged": merged,
		"groups": store.Groups(),
	})
}

// SplitRequest represents a split correction
type SplitRequest struct {
	GroupID string `json:"group_id"`
	Photo   string `json:"photo"`
}

// Split moves one photo out of a group into a new singleton group.
func (h *BatchesHandler) Split(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "id")
	store := h.registry.Get(batchID)
	if store == nil {
		respondError(w, http.StatusNotFound, "batch not found")
		return
	}

	var req SplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.GroupID == "" || req.Photo == "" {
		respondError(w, http.StatusBadRequest, "group_id and photo are required")
		return
	}

	updated, split, err := store.Split(req.GroupID, req.Photo)
	if err != nil {
		switch {
		case errors.Is(err, grouping.ErrGroupNotFound), errors.Is(err, grouping.ErrPhotoNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"updated": updated,
		"split":   split,
		"groups":  store.Groups(),
	})
}
