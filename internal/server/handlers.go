package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/provkit/provisiond/internal/credentials"
	"github.com/provkit/provisiond/internal/logging"
	"github.com/provkit/provisiond/internal/payload"
)

// setWifiRequest is the body of POST /set_wifi. Data is a pointer so a
// missing field and an empty field produce different diagnostics.
type setWifiRequest struct {
	Data *string `json:"data"`
}

// handleSetWifi consumes an encrypted credential payload. Every cipher or
// parser failure is a 400 with a short diagnostic and no state change.
// Success acknowledges FIRST and starts the connection attempt after the
// acknowledgment is on the wire: callers cannot infer connection success
// from the HTTP response.
func (s *Server) handleSetWifi(w http.ResponseWriter, r *http.Request) {
	logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path)

	if r.Method != http.MethodPost {
		s.respond(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req setWifiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.Warn("JSON parsing failed", zap.Error(err))
		s.respond(w, r, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Data == nil {
		logging.Warn("Missing 'data' parameter")
		s.respond(w, r, http.StatusBadRequest, "Missing 'data' parameter")
		return
	}

	plaintext, err := payload.Decrypt(*req.Data)
	if err != nil {
		logging.Warn("Payload decryption failed", zap.Error(err))
		s.respond(w, r, http.StatusBadRequest, "Decryption Failed")
		return
	}

	creds, err := credentials.Parse(plaintext)
	if err != nil {
		logging.Warn("Credential parsing failed", zap.Error(err))
		s.respond(w, r, http.StatusBadRequest, "Invalid WiFi data format")
		return
	}

	// Acknowledge before the attempt begins. The flush puts the response
	// on the wire so the ordering guarantee does not depend on when this
	// handler returns.
	s.respond(w, r, http.StatusOK, "WiFi Credentials Processing...")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	// Ownership of creds moves to the detached worker
	s.manager.StartAttempt(creds)
}

// handleRoot is the liveness probe.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.respond(w, r, http.StatusOK, "Hello, world!")
}

// handleDisplay pushes a caller-supplied message to the status sink and
// echoes it. Purely a status-sink exercise.
func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	msg := r.URL.Query().Get("msg")

	if err := s.sink.Show(msg); err != nil {
		logging.Error("Status sink rejected message", zap.Error(err))
		s.respond(w, r, http.StatusInternalServerError, "Display failed")
		return
	}

	s.respond(w, r, http.StatusOK, "Displayed: "+msg)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
	logging.LogHTTPResponse(r.RemoteAddr, status, body)
}
