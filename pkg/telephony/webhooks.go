package telephony

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// nccoAction is one step of a Vonage Call Control Object.
type nccoAction map[string]interface{}

// handleAnswer returns the NCCO that greets the caller and connects them to
// the /socket WebSocket endpoint, literally reproducing the original
// service's answer_call response shape.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	ncco := []nccoAction{
		{
			"action": "talk",
			"text":   "Welcome.",
		},
		{
			"action": "connect",
			"from":   "Vonage",
			"endpoint": []nccoAction{
				{
					"type":         "websocket",
					"uri":          "wss://" + r.Host + "/socket",
					"content-type": "audio/l16;rate=16000",
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ncco)
}

// handleEvents acknowledges Vonage's call-status callbacks. Nothing in this
// repository currently acts on event content; it exists so Vonage does not
// treat the missing endpoint as a misconfigured application.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.Logger.Debug("telephony event received", "method", r.Method)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Event received"))
}

// NewRouter wires the WebSocket audio endpoint and the answer/events
// webhooks onto a gorilla/mux router.
func (s *Server) NewRouter() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/socket", s.HandleSocket)
	router.HandleFunc("/webhooks/answer", s.handleAnswer).Methods(http.MethodGet)
	router.HandleFunc("/webhooks/events", s.handleEvents).Methods(http.MethodGet, http.MethodPost)
	return router
}
