package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tarungka/ripple/checkpoint"
	"github.com/tarungka/ripple/engine"
	"github.com/tarungka/ripple/stream"
)

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Subscriptions(ctx context.Context) ([]engine.SubscriptionInfo, error) {
	args := m.Called(ctx)
	infos, _ := args.Get(0).([]engine.SubscriptionInfo)
	return infos, args.Error(1)
}

func (m *MockEngine) Subscribe(ctx context.Context, uri string) error {
	return m.Called(ctx, uri).Error(0)
}

func (m *MockEngine) Dispose(ctx context.Context, uri string) error {
	return m.Called(ctx, uri).Error(0)
}

func (m *MockEngine) Checkpoint(ctx context.Context) (*checkpoint.Checkpoint, error) {
	args := m.Called(ctx)
	cp, _ := args.Get(0).(*checkpoint.Checkpoint)
	return cp, args.Error(1)
}

type recordingPublisher struct {
	topic string
	value stream.Event
}

func (p *recordingPublisher) Publish(topic string, value stream.Event) int {
	p.topic = topic
	p.value = value
	return 3
}

func do(t *testing.T, h http.Handler, method, target, body string) (int, ResponseModel) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp ResponseModel
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func TestServer_ListSubscriptions(t *testing.T) {
	e := &MockEngine{}
	e.On("Subscriptions", mock.Anything).Return([]engine.SubscriptionInfo{
		{URI: "rx://a", Operator: "Take", Lifecycle: "Active", Active: true},
	}, nil).Once()
	e.On("Subscriptions", mock.Anything).Return(nil, nil).Once()
	h := New(Config{}, e, nil).Handler()

	code, resp := do(t, h, http.MethodGet, "/subscriptions", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.Equal(t, []any{map[string]any{
		"uri": "rx://a", "operator": "Take", "lifecycle": "Active", "active": true,
	}}, resp.Data)

	_, resp = do(t, h, http.MethodGet, "/subscriptions", "")
	assert.Equal(t, []any{}, resp.Data)
	e.AssertExpectations(t)
}

func TestServer_SubscribeAndDispose(t *testing.T) {
	e := &MockEngine{}
	e.On("Subscribe", mock.Anything, "rx://a").Return(nil)
	e.On("Subscribe", mock.Anything, "rx://b").Return(fmt.Errorf("%w: rx://b", engine.ErrAlreadySubscribed))
	e.On("Subscribe", mock.Anything, "rx://nope").Return(fmt.Errorf("%w: rx://nope", engine.ErrUnknownQuery))
	e.On("Dispose", mock.Anything, "rx://a").Return(nil)
	e.On("Dispose", mock.Anything, "rx://c").Return(engine.ErrNotSubscribed)
	h := New(Config{}, e, nil).Handler()

	code, resp := do(t, h, http.MethodPost, "/subscriptions?uri=rx://a", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	code, resp = do(t, h, http.MethodPost, "/subscriptions?uri=rx://b", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "rx://b")

	code, _ = do(t, h, http.MethodPost, "/subscriptions?uri=rx://nope", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodPost, "/subscriptions", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodDelete, "/subscriptions?uri=rx://a", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, h, http.MethodDelete, "/subscriptions?uri=rx://c", "")
	assert.Equal(t, http.StatusNotFound, code)
	e.AssertExpectations(t)
}

func TestServer_Checkpoint(t *testing.T) {
	e := &MockEngine{}
	taken := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	e.On("Checkpoint", mock.Anything).Return(&checkpoint.Checkpoint{
		ID:       "cp-1",
		Sequence: 4,
		Taken:    taken.UnixNano(),
		Queries:  map[string]*checkpoint.OperatorState{"rx://b": {}, "rx://a": {}},
	}, nil).Once()
	e.On("Checkpoint", mock.Anything).Return(nil, checkpoint.ErrCheckpointFailed).Once()
	h := New(Config{}, e, nil).Handler()

	code, resp := do(t, h, http.MethodPost, "/checkpoint", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{
		"id":       "cp-1",
		"sequence": float64(4),
		"taken":    "2024-01-02T03:04:05Z",
		"queries":  []any{"rx://a", "rx://b"},
	}, resp.Data)

	code, resp = do(t, h, http.MethodPost, "/checkpoint", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, checkpoint.ErrCheckpointFailed.Error(), resp.Error)
}

func TestServer_Publish(t *testing.T) {
	p := &recordingPublisher{}
	h := New(Config{}, &MockEngine{}, p).Handler()

	code, resp := do(t, h, http.MethodPost, "/topics/orders", `{"id":1}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "orders", p.topic)
	assert.Equal(t, map[string]any{"id": float64(1)}, p.value)
	assert.Equal(t, map[string]any{"topic": "orders", "subscribers": float64(3)}, resp.Data)

	code, _ = do(t, h, http.MethodPost, "/topics/orders", `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, New(Config{}, &MockEngine{}, nil).Handler(), http.MethodPost, "/topics/orders", `1`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_HealthAndVars(t *testing.T) {
	h := New(Config{}, &MockEngine{}, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/debug/vars", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"engine"`)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	s := New(Config{Port: "0"}, &MockEngine{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
