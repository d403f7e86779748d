package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/campus-assistant/internal/speech"
)

type MockRouter struct {
	mock.Mock
}

func (m *MockRouter) Route(ctx context.Context, text, role string) string {
	return m.Called(ctx, text, role).String(0)
}

type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	args := m.Called(ctx, text)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func TestQueryHandler(t *testing.T) {
	_, api := humatest.New(t)

	router := &MockRouter{}
	router.On("Route", mock.Anything, "attendance of IT001", "teacher").Return("Certainly!").Once()
	NewQueryHandler(api, router)

	resp := api.Post("/api/query", map[string]any{"query": "attendance of IT001", "role": "teacher"})
	require.Equal(t, http.StatusOK, resp.Code)

	var body QueryResponseDTO
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "Certainly!", body.Answer)
	router.AssertExpectations(t)
}

func TestQueryHandler_AcceptsLongQuery(t *testing.T) {
	_, api := humatest.New(t)
	router := &MockRouter{}
	NewQueryHandler(api, router)

	long := strings.Repeat("timetable ", 500)
	router.On("Route", mock.Anything, long, "student").Return("ok").Once()

	resp := api.Post("/api/query", map[string]any{"query": long, "role": "student"})
	require.Equal(t, http.StatusOK, resp.Code)

	var body QueryResponseDTO
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Answer)
	router.AssertExpectations(t)
}

func TestQueryHandler_RequiresFields(t *testing.T) {
	_, api := humatest.New(t)
	router := &MockRouter{}
	NewQueryHandler(api, router)

	resp := api.Post("/api/query", map[string]any{"query": "hello"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	router.AssertNotCalled(t, "Route", mock.Anything, mock.Anything, mock.Anything)
}

func TestTTSHandler(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		audio    []byte
		err      error
		wantCode int
		wantBody string
	}{
		{name: "audio", text: "નમસ્તે", audio: []byte("RIFF...."), wantCode: http.StatusOK},
		{name: "empty text", text: "", wantCode: http.StatusBadRequest, wantBody: "No text provided."},
		{name: "unavailable", text: "hi", err: speech.ErrTTSUnavailable, wantCode: http.StatusInternalServerError, wantBody: speech.TTSUnavailableText},
		{name: "failure", text: "hi", err: errors.New("exit status 1"), wantCode: http.StatusInternalServerError, wantBody: speech.TTSErrorText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, api := humatest.New(t)

			synth := &MockSynthesizer{}
			synth.On("Synthesize", mock.Anything, tt.text).Return(tt.audio, tt.err).Maybe()
			NewTTSHandler(api, synth)

			resp := api.Post("/tts", map[string]any{"text": tt.text})
			require.Equal(t, tt.wantCode, resp.Code)

			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "audio/wav", resp.Header().Get("Content-Type"))
				assert.Equal(t, tt.audio, resp.Body.Bytes())
				return
			}
			assert.Contains(t, resp.Body.String(), tt.wantBody)
		})
	}
}

func TestWelcomeAndCORS(t *testing.T) {
	mux := http.NewServeMux()
	api := NewAPI(mux, "Campus Assistant API")
	RegisterWelcome(api, "Welcome to the College AI Assistant API")
	RegisterWebsocket(mux, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler := WithCORS(mux, []string{"http://localhost:3000"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	var body WelcomeResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Welcome to the College AI Assistant API", body.Message)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
