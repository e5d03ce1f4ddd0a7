package mcp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/alucardeht/ghflow-mcp/pkg/protocol"
)

// Server adapts the dispatcher onto the two transports: a single-shot
// HTTP POST endpoint and a persistent websocket message stream.
type Server struct {
	handler   *Handler
	startTime time.Time
}

func NewServer(handler *Handler) *Server {
	return &Server{
		handler:   handler,
		startTime: time.Now(),
	}
}

// Routes registers the protocol endpoints on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/mcp", s.handlePost)
	mux.Handle("/mcp/ws", websocket.Handler(s.handleSocket))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"service":   s.handler.info.Name,
		"version":   s.handler.info.Version,
		"uptime":    int64(time.Since(s.startTime).Seconds()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handlePost serves one request per HTTP POST. Protocol-level failures
// travel inside the JSON-RPC envelope, not as HTTP statuses.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var resp *Response
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// The id cannot be recovered from an unparsable body.
		resp = protocol.Error(nil, protocol.ParseError, "Parse error", nil)
	} else {
		resp = s.handler.Handle(r.Context(), &req)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Debug("response write failed", "error", err)
	}
}

// handleSocket runs the message loop for one websocket connection. Each
// text frame carries exactly one request and gets exactly one response,
// in arrival order. A close frame or any send failure ends the loop.
func (s *Server) handleSocket(conn *websocket.Conn) {
	defer conn.Close()

	connID := uuid.NewString()
	connLog := log.With("conn", connID)
	connLog.Info("websocket connection established")

	ctx := conn.Request().Context()

	for {
		var frame string
		if err := websocket.Message.Receive(conn, &frame); err != nil {
			if !errors.Is(err, io.EOF) {
				connLog.Debug("websocket receive failed", "error", err)
			}
			connLog.Info("websocket connection closed")
			return
		}

		var resp *Response
		var req Request
		if err := json.Unmarshal([]byte(frame), &req); err != nil {
			resp = protocol.Error(nil, protocol.ParseError, "Parse error", nil)
		} else {
			resp = s.handler.Handle(ctx, &req)
		}

		out, err := json.Marshal(resp)
		if err != nil {
			connLog.Error("response marshal failed", "error", err)
			return
		}
		if err := websocket.Message.Send(conn, string(out)); err != nil {
			connLog.Debug("websocket send failed", "error", err)
			return
		}
	}
}
