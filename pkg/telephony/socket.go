// Package telephony exposes the orchestrator over the wire: a WebSocket
// audio pump at /socket plus the Vonage NCCO webhooks that point a call at
// it, grounded in the original service's VoipSocket handler.
package telephony

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/orchestrator"
)

// ControllerFactory builds one Controller per accepted call, wiring
// call-specific providers and a sink that writes synthesized audio back
// onto the socket.
type ControllerFactory func(callID string, sink func([]byte) error) *orchestrator.Controller

// Server owns the WebSocket handler for telephony audio streams.
type Server struct {
	NewController ControllerFactory
	Logger        orchestrator.Logger
}

func NewServer(factory ControllerFactory, logger orchestrator.Logger) *Server {
	if logger == nil {
		logger = &orchestrator.NoOpLogger{}
	}
	return &Server{NewController: factory, Logger: logger}
}

// HandleSocket accepts the WebSocket, skips the non-audio handshake message
// the telephony provider sends first, then pumps inbound binary frames into
// the controller and outbound synthesized audio back onto the wire.
func (s *Server) HandleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.Logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// First message is the telephony provider's connection handshake, not
	// audio; discard it.
	if _, _, err := conn.Read(ctx); err != nil {
		s.Logger.Warn("failed to read handshake message", "error", err)
		return
	}

	callID := r.URL.Query().Get("call_id")
	if callID == "" {
		callID = uuid.NewString()
	}

	ctrl := s.NewController(callID, func(frame []byte) error {
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return conn.Write(writeCtx, websocket.MessageBinary, frame)
	})

	go ctrl.Start(ctx)
	defer ctrl.Stop()

	for {
		msgType, payload, err := conn.Read(ctx)
		if err != nil {
			s.Logger.Info("websocket closed", "call_id", callID, "error", err)
			return
		}
		if msgType != websocket.MessageBinary {
			continue
		}
		ctrl.PushAudio(payload)
	}
}
