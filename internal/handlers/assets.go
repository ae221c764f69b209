package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"photo-catalog/internal/asset"
)

// AssetList is the catalog of the selected folder.
type AssetList struct {
	Folder     string        `json:"folder"`
	Generation uint64        `json:"generation"`
	Assets     []asset.Asset `json:"assets"`
}

// FlagsRequest sets the culling decision of one asset. Pick and reject are
// mutually exclusive; both false clears the decision.
type FlagsRequest struct {
	Pick   bool `json:"pick"`
	Reject bool `json:"reject"`
}

// ListAssets returns every asset ordered by path.
func (h *Handlers) ListAssets(w http.ResponseWriter, _ *http.Request) {
	assets := h.svc.Assets()
	if assets == nil {
		assets = []asset.Asset{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AssetList{
		Folder:     h.svc.Folder(),
		Generation: uint64(h.svc.Generation()),
		Assets:     assets,
	})
}

// GetAsset returns one asset.
func (h *Handlers) GetAsset(w http.ResponseWriter, r *http.Request) {
	id := asset.ID(mux.Vars(r)["id"])
	a, ok := h.svc.Asset(id)
	if !ok {
		writeJSONError(w, "Asset not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, a)
}

// SetFlags records a pick or reject decision.
func (h *Handlers) SetFlags(w http.ResponseWriter, r *http.Request) {
	id := asset.ID(mux.Vars(r)["id"])

	var req FlagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Pick && req.Reject {
		writeJSONError(w, "An asset cannot be both picked and rejected", http.StatusBadRequest)
		return
	}

	var flags asset.Flags
	if req.Pick {
		flags |= asset.FlagPick
	}
	if req.Reject {
		flags |= asset.FlagReject
	}

	a, err := h.svc.SetFlags(r.Context(), id, flags)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, a)
}
