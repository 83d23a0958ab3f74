package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// MaxValidateBody caps the candidate record accepted by POST
// /api/config/validate.
const MaxValidateBody = 64 << 10

// SnapshotView is the JSON shape served for GET /api/config.
type SnapshotView struct {
	Revision string    `json:"Revision"`
	LoadedAt time.Time `json:"LoadedAt"`
	Config   Config    `json:"Config"`
}

// ValidationResult is returned by POST /api/config/validate.
type ValidationResult struct {
	Valid  bool   `json:"Valid"`
	Field  string `json:"Field,omitempty"`
	Reason string `json:"Reason,omitempty"`
}

// ConfigHandler serves a read-only view of the active configuration. Changes
// go through the config file and the Watcher.
func ConfigHandler(store *Store) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		getConfigHandler(w, r, store)
	})
	mux.HandleFunc("/api/config/validate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		validateConfigHandler(w, r)
	})
	return mux
}

// getConfigHandler returns the current snapshot with the network secret
// redacted.
func getConfigHandler(w http.ResponseWriter, r *http.Request, store *Store) {
	slog.Debug("Handling GET /api/config request")
	snap := store.Current()
	view := SnapshotView{
		Revision: snap.Revision.String(),
		LoadedAt: snap.LoadedAt,
		Config:   snap.Config.Redacted(),
	}
	writeJSON(w, http.StatusOK, view)
}

// validateConfigHandler checks a candidate record without applying it.
func validateConfigHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Handling POST /api/config/validate request")
	r.Body = http.MaxBytesReader(w, r.Body, MaxValidateBody)
	defer r.Body.Close()

	var candidate Config
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		slog.Warn("Failed to decode incoming JSON", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := Load(candidate); err != nil {
		res := ValidationResult{Valid: false, Reason: err.Error()}
		var ice *InvalidConfigurationError
		if errors.As(err, &ice) {
			res.Field = ice.Field
			res.Reason = ice.Reason
		}
		writeJSON(w, http.StatusBadRequest, res)
		return
	}
	writeJSON(w, http.StatusOK, ValidationResult{Valid: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}
