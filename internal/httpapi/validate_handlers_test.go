package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/events"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/store"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/validate"
)

func newTestMux(t *testing.T, d Deps) *http.ServeMux {
	t.Helper()
	if d.Hub == nil {
		d.Hub = events.NewHub()
	}
	if d.RunStatus == nil {
		var v atomic.Value
		v.Store(RunStatus{})
		d.RunStatus = &v
	}
	return NewMux(d)
}

func TestValidateRunAsync(t *testing.T) {
	var mu sync.Mutex
	ran := false
	done := make(chan struct{})

	mux := newTestMux(t, Deps{
		RunBatch: func(ctx context.Context) ([]validate.Result, error) {
			mu.Lock()
			ran = true
			mu.Unlock()
			close(done)
			return []validate.Result{{ID: 1, Status: "valid", Success: true}}, nil
		},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validate/run", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("batch did not run")
	}
	mu.Lock()
	assert.True(t, ran)
	mu.Unlock()
}

func TestValidateRunRejectsConcurrent(t *testing.T) {
	var status atomic.Value
	status.Store(RunStatus{Running: true})

	mux := newTestMux(t, Deps{
		RunStatus: &status,
		RunBatch: func(ctx context.Context) ([]validate.Result, error) {
			t.Fatal("a running batch must block a second one")
			return nil, nil
		},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validate/run", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])
}

func TestValidateRunMethodNotAllowed(t *testing.T) {
	mux := newTestMux(t, Deps{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/validate/run", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestValidateOneByPath(t *testing.T) {
	mux := newTestMux(t, Deps{
		RunOne: func(ctx context.Context, id int64) (validate.Result, error) {
			assert.Equal(t, int64(42), id)
			return validate.Result{ID: id, Status: "valid", Success: true, ValidatedBy: "greenhouse"}, nil
		},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validate/jobs/42", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var res validate.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, int64(42), res.ID)
	assert.True(t, res.Success)
}

func TestValidateOneBadID(t *testing.T) {
	mux := newTestMux(t, Deps{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validate/jobs/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateOneNotFound(t *testing.T) {
	mux := newTestMux(t, Deps{
		RunOne: func(ctx context.Context, id int64) (validate.Result, error) {
			return validate.Result{}, store.ErrNotFound
		},
	})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validate/jobs/7", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidateStatus(t *testing.T) {
	var status atomic.Value
	status.Store(RunStatus{LastProcessed: 3, LastError: "boom"})

	mux := newTestMux(t, Deps{RunStatus: &status})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/validate/status", nil))

	var st RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 3, st.LastProcessed)
	assert.Equal(t, "boom", st.LastError)
}

func TestSecretsSetOpenAI(t *testing.T) {
	var saved string
	mux := newTestMux(t, Deps{
		SetOpenAIKey: func(k string) error { saved = k; return nil },
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/secrets/openai", strings.NewReader(`{"key":"sk-abc"}`))
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "sk-abc", saved)
}

func TestSecretsRejectsEmptyKey(t *testing.T) {
	mux := newTestMux(t, Deps{
		SetOpenCageKey: func(k string) error { return errors.New("should not be called") },
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/secrets/opencage", strings.NewReader(`{"key":""}`))
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	mux := newTestMux(t, Deps{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
}
