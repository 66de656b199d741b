package api

import (
	"encoding/json"
	"net/http"

	"github.com/danvoulez/voulezvous-tv/internal/config"
	"github.com/danvoulez/voulezvous-tv/internal/runtimestate"
)

// ControlHandlers implements the three protected /v1/control/* endpoints.
// Each mutates shared runtimestate.State directly. Of these values the
// scheduler loop reads only the owner card, picking up a reload on its
// next tick.
type ControlHandlers struct {
	state         *runtimestate.State
	ownerCardPath string
}

func NewControlHandlers(state *runtimestate.State, ownerCardPath string) *ControlHandlers {
	return &ControlHandlers{state: state, ownerCardPath: ownerCardPath}
}

// HandleReloadOwnerCard re-reads and re-validates the owner card file from
// disk and swaps it into shared state atomically. A validation failure
// leaves the previously loaded card in place.
func (c *ControlHandlers) HandleReloadOwnerCard(w http.ResponseWriter, r *http.Request) {
	card, err := config.LoadOwnerCard(c.ownerCardPath)
	if err != nil {
		writeControlError(w, http.StatusBadRequest, err)
		return
	}
	c.state.ReplaceOwnerCard(card)
	writeControlOK(w, map[string]interface{}{"schema_version": card.SchemaVersion})
}

// HandleToggleEmergencyMode flips the shared emergency-mode flag. While
// it is set, /v1/status reports state "EMERGENCY"; the scheduler does not
// read the flag.
func (c *ControlHandlers) HandleToggleEmergencyMode(w http.ResponseWriter, r *http.Request) {
	next := !c.state.EmergencyMode()
	c.state.SetEmergencyMode(next)
	writeControlOK(w, map[string]interface{}{"emergency_mode": next})
}

// HandleSetCuratorMode accepts {"mode":"auto"|"manual"} and rejects
// anything else with 400.
func (c *ControlHandlers) HandleSetCuratorMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeControlError(w, http.StatusBadRequest, err)
		return
	}
	if req.Mode != "auto" && req.Mode != "manual" {
		writeControlError(w, http.StatusBadRequest, errInvalidCuratorMode)
		return
	}
	c.state.SetCuratorMode(req.Mode)
	writeControlOK(w, map[string]interface{}{"curator_mode": req.Mode})
}

var errInvalidCuratorMode = controlModeError("curator mode must be \"auto\" or \"manual\"")

type controlModeError string

func (e controlModeError) Error() string { return string(e) }

func writeControlOK(w http.ResponseWriter, payload map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	payload["status"] = "ok"
	json.NewEncoder(w).Encode(payload)
}

func writeControlError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
