package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danvoulez/voulezvous-tv/internal/config"
	"github.com/danvoulez/voulezvous-tv/internal/runtimestate"
)

func writeTestOwnerCard(t *testing.T, schemaVersion int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "owner_card.json")
	card := map[string]interface{}{
		"schema_version": schemaVersion,
		"discovery":      map[string]interface{}{"allowlist_domains": []string{"example.com"}},
		"buffer":         map[string]interface{}{"buffer_target_minutes": 60, "buffer_critical_minutes": 20},
		"planning":       map[string]interface{}{"max_consecutive_same_theme": 2},
	}
	raw, err := json.Marshal(card)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestHandleReloadOwnerCard_SwapsStateOnValidCard(t *testing.T) {
	path := writeTestOwnerCard(t, 3)
	state := runtimestate.New(&config.OwnerCard{SchemaVersion: 1})
	ctrl := NewControlHandlers(state, path)

	req := httptest.NewRequest(http.MethodPost, "/v1/control/reload-owner-card", nil)
	w := httptest.NewRecorder()
	ctrl.HandleReloadOwnerCard(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, state.OwnerCard().SchemaVersion)
}

func TestHandleReloadOwnerCard_LeavesStateOnInvalidCard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "owner_card.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version":0}`), 0o644))

	state := runtimestate.New(&config.OwnerCard{SchemaVersion: 1})
	ctrl := NewControlHandlers(state, path)

	req := httptest.NewRequest(http.MethodPost, "/v1/control/reload-owner-card", nil)
	w := httptest.NewRecorder()
	ctrl.HandleReloadOwnerCard(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, state.OwnerCard().SchemaVersion)
}

func TestHandleToggleEmergencyMode_Flips(t *testing.T) {
	state := runtimestate.New(&config.OwnerCard{SchemaVersion: 1})
	ctrl := NewControlHandlers(state, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/control/emergency-mode", nil)
	w := httptest.NewRecorder()
	ctrl.HandleToggleEmergencyMode(w, req)

	assert.True(t, state.EmergencyMode())

	w2 := httptest.NewRecorder()
	ctrl.HandleToggleEmergencyMode(w2, req)
	assert.False(t, state.EmergencyMode())
}

func TestHandleSetCuratorMode_RejectsInvalidMode(t *testing.T) {
	state := runtimestate.New(&config.OwnerCard{SchemaVersion: 1})
	ctrl := NewControlHandlers(state, "")

	body, _ := json.Marshal(map[string]string{"mode": "bogus"})
	req := httptest.NewRequest(http.MethodPost, "/v1/control/curator-mode", bytes.NewReader(body))
	w := httptest.NewRecorder()
	ctrl.HandleSetCuratorMode(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "auto", state.CuratorMode())
}

func TestHandleSetCuratorMode_AcceptsManual(t *testing.T) {
	state := runtimestate.New(&config.OwnerCard{SchemaVersion: 1})
	ctrl := NewControlHandlers(state, "")

	body, _ := json.Marshal(map[string]string{"mode": "manual"})
	req := httptest.NewRequest(http.MethodPost, "/v1/control/curator-mode", bytes.NewReader(body))
	w := httptest.NewRecorder()
	ctrl.HandleSetCuratorMode(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "manual", state.CuratorMode())
}
