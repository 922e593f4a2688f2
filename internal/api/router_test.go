package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-harmony/internal/config"
	"github.com/Conceptual-Machines/magda-harmony/internal/database"
	"github.com/Conceptual-Machines/magda-harmony/internal/metrics"
	"github.com/Conceptual-Machines/magda-harmony/internal/models"
	"github.com/Conceptual-Machines/magda-harmony/internal/services"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

func setupTestRouter(t *testing.T, withStore bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var opts []services.ServiceOption
	if withStore {
		store, err := database.Open("sqlite://" + filepath.Join(t.TempDir(), "runs.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		opts = append(opts, services.WithStore(store))
	}
	collector := metrics.NewCollector()
	opts = append(opts, services.WithCollector(collector))

	svc, err := services.NewHarmonyService(config.DefaultProfile(), 5*time.Second, opts...)
	require.NoError(t, err)

	return SetupRouter(Deps{
		Config:    &config.Config{AuthMode: "none"},
		Service:   svc,
		Collector: collector,
		Version:   "test",
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := setupTestRouter(t, false)
	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"persistence":"disabled"`)

	w = doJSON(t, r, http.MethodGet, "/api/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"test"`)
}

func TestHarmonizeEndpoint(t *testing.T) {
	r := setupTestRouter(t, false)

	w := doJSON(t, r, http.MethodPost, "/api/v1/harmonize", gin.H{
		"key": "C",
		"melody": []gin.H{
			{"name": "C4", "start": "0", "duration": "1/4"},
			{"name": "D4", "start": "1/4", "duration": "1/4"},
			{"name": "E4", "start": "1/2", "duration": "1/4"},
			{"name": "F4", "start": "3/4", "duration": "1/4"},
			{"pitch": 67, "start": "1", "duration": "1/2"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.HarmonizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Chords, 3)
	assert.Equal(t, "F", resp.Chords[1].Symbol)
	assert.Equal(t, "IV", resp.Chords[1].Numeral)
	assert.Equal(t, "1/2", resp.Chords[1].Start.RatString())
	assert.Contains(t, w.Body.String(), `"start":"1/2"`)
}

func TestVoiceLeadEndpoint(t *testing.T) {
	r := setupTestRouter(t, false)

	w := doJSON(t, r, http.MethodPost, "/api/v1/voicelead", gin.H{"chords": []string{"C", "F", "G", "C"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sol voicing.Solution
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sol))
	assert.True(t, sol.IsValid)
	assert.Len(t, sol.Voicings, 4)
	require.NotNil(t, sol.Report)
	assert.Zero(t, sol.Report.ParallelFifths)

	// Infeasible under strict mode is still a 200.
	w = doJSON(t, r, http.MethodPost, "/api/v1/voicelead", gin.H{
		"chords": []string{"C", "D"},
		"voicing": gin.H{
			"mode": "strict",
			"ranges": gin.H{
				"bass":    gin.H{"low": 48, "high": 50},
				"tenor":   gin.H{"low": 55, "high": 57},
				"alto":    gin.H{"low": 60, "high": 62},
				"soprano": gin.H{"low": 64, "high": 66},
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"is_valid":false`)

	w = doJSON(t, r, http.MethodGet, "/metrics", nil)
	assert.Contains(t, w.Body.String(), `harmony_solves_total{kind="voicelead",outcome="invalid"} 1`)

	w = doJSON(t, r, http.MethodGet, "/api/metrics", nil)
	assert.Contains(t, w.Body.String(), `"solves":{"total":2,"by_kind":{"voicelead":{"invalid":1,"ok":1}}}`)
}

func TestErrorMapping(t *testing.T) {
	r := setupTestRouter(t, false)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{name: "malformed json", path: "/api/v1/voicelead", body: "not an object", status: http.StatusBadRequest},
		{name: "bad chord symbol", path: "/api/v1/voicelead", body: gin.H{"chords": []string{"C", "Q7"}}, status: http.StatusBadRequest},
		{name: "bad mode", path: "/api/v1/voicelead", body: gin.H{"chords": []string{"C"}, "voicing": gin.H{"mode": "loose"}}, status: http.StatusBadRequest},
		{name: "missing key", path: "/api/v1/harmonize", body: gin.H{"melody": []gin.H{}}, status: http.StatusBadRequest},
		{name: "bad key", path: "/api/v1/harmonize", body: gin.H{"key": "Z"}, status: http.StatusBadRequest},
		{
			name: "overlapping melody",
			path: "/api/v1/harmonize",
			body: gin.H{"key": "C", "melody": []gin.H{
				{"name": "C4", "start": "1/2", "duration": "1/4"},
				{"name": "D4", "start": "0", "duration": "1/4"},
			}},
			status: http.StatusBadRequest,
		},
		{
			name: "no candidates",
			path: "/api/v1/harmonize",
			body: gin.H{
				"key":        "C",
				"melody":     []gin.H{{"name": "C#4", "start": "0", "duration": "1"}},
				"candidates": gin.H{"include_secondary_dominants": false, "include_borrowed": false},
			},
			status: http.StatusUnprocessableEntity,
		},
		{name: "runs without store", path: "/api/v1/runs", status: http.StatusNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodPost
			if tt.body == nil {
				method = http.MethodGet
			}
			w := doJSON(t, r, method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestRunsEndpoints(t *testing.T) {
	r := setupTestRouter(t, true)

	w := doJSON(t, r, http.MethodPost, "/api/v1/arrange", gin.H{
		"key": "Am",
		"melody": []gin.H{
			{"name": "A4", "start": "0", "duration": "1/2"},
			{"name": "G#4", "start": "1/2", "duration": "1/2"},
			{"name": "A4", "start": "1", "duration": "1"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var arranged models.ArrangeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &arranged))
	require.NotEmpty(t, arranged.RunID)
	assert.Equal(t, "A minor", arranged.Harmonization.Key)
	assert.True(t, arranged.Voicing.IsValid)

	w = doJSON(t, r, http.MethodGet, "/api/v1/runs?kind=arrange", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), arranged.RunID)

	w = doJSON(t, r, http.MethodGet, "/api/v1/runs/"+arranged.RunID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var run models.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, models.RunKindArrange, run.Kind)

	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/api/v1/runs/nope", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/api/v1/runs?limit=0", nil).Code)
}

func TestProfileEndpoint(t *testing.T) {
	r := setupTestRouter(t, false)
	w := doJSON(t, r, http.MethodGet, "/api/v1/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var p config.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, config.DefaultProfile(), p)
}
