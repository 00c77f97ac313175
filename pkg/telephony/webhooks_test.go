package telephony

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/orchestrator"
)

func newTestServer() *Server {
	factory := func(callID string, sink func([]byte) error) *orchestrator.Controller {
		return orchestrator.NewController(callID, orchestrator.DefaultConfig(), orchestrator.Providers{}, sink, orchestrator.NewMetrics(nil), &orchestrator.NoOpLogger{})
	}
	return NewServer(factory, &orchestrator.NoOpLogger{})
}

func TestHandleAnswerReturnsTalkThenConnectNCCO(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/webhooks/answer", nil)
	req.Host = "example.com"
	rec := httptest.NewRecorder()

	s.handleAnswer(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var ncco []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &ncco); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(ncco) != 2 {
		t.Fatalf("expected a 2-step NCCO (talk, connect), got %d steps", len(ncco))
	}
	if ncco[0]["action"] != "talk" {
		t.Fatalf("expected first NCCO step to be talk, got %v", ncco[0]["action"])
	}
	if ncco[1]["action"] != "connect" {
		t.Fatalf("expected second NCCO step to be connect, got %v", ncco[1]["action"])
	}

	endpoints, ok := ncco[1]["endpoint"].([]interface{})
	if !ok || len(endpoints) != 1 {
		t.Fatalf("expected exactly one websocket endpoint, got %#v", ncco[1]["endpoint"])
	}
	endpoint := endpoints[0].(map[string]interface{})
	if endpoint["uri"] != "wss://example.com/socket" {
		t.Fatalf("expected the connect endpoint to point at this host's /socket, got %v", endpoint["uri"])
	}
}

func TestHandleEventsAcksWithOK(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/events", nil)
	rec := httptest.NewRecorder()

	s.handleEvents(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestNewRouterRegistersExpectedRoutes(t *testing.T) {
	s := newTestServer()
	router := s.NewRouter()

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/webhooks/answer"},
		{http.MethodGet, "/webhooks/events"},
		{http.MethodPost, "/webhooks/events"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		var match mux.RouteMatch
		if !router.Match(req, &match) {
			t.Fatalf("expected a route match for %s %s", tc.method, tc.path)
		}
	}
}
