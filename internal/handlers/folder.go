package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"photo-catalog/internal/asset"
	"photo-catalog/internal/folder"
)

// FolderRequest selects a folder by path.
type FolderRequest struct {
	Path string `json:"path"`
}

// FolderResponse reports the selected folder and the outcome of its scan.
type FolderResponse struct {
	Folder     string        `json:"folder"`
	Generation uint64        `json:"generation"`
	Summary    asset.Summary `json:"summary"`
}

// SelectFolder opens a folder and scans it, replacing the current catalog.
func (h *Handlers) SelectFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	f, err := folder.Open(r.Context(), req.Path)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := h.svc.SelectFolder(r.Context(), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	log.Info("folder %s selected: %d added, %d failed", req.Path, summary.Added, summary.Failed)
	h.writeFolderResponse(w, summary)
}

// Rescan reconciles the current folder with the disk.
func (h *Handlers) Rescan(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.RescanFolder(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeFolderResponse(w, summary)
}

// Reload replaces the catalog with the persisted records.
func (h *Handlers) Reload(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.LoadFromDatabase(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"folder": h.svc.Folder(),
		"loaded": n,
	})
}

func (h *Handlers) writeFolderResponse(w http.ResponseWriter, summary asset.Summary) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, FolderResponse{
		Folder:     h.svc.Folder(),
		Generation: uint64(h.svc.Generation()),
		Summary:    summary,
	})
}
