package http

import (
	"encoding/json"
	"net/http"

	"github.com/plughub-io/plughub/internal/hub/core"
	"github.com/plughub-io/plughub/internal/hub/core/protocol"
)

type handler struct {
	svc SessionService
}

// controlRequest is the body of request_verification and control calls.
type controlRequest struct {
	Action string `json:"action"`
	Code   string `json:"code,omitempty"`
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Status())
}

func (h *handler) requestVerification(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if !decodeBody(w, r, &req) {
		return
	}

	writeJSON(w, h.svc.RequestVerification(r.Context(), protocol.Intent(req.Action)))
}

func (h *handler) control(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if !decodeBody(w, r, &req) {
		return
	}

	writeJSON(w, h.svc.Control(r.Context(), protocol.Intent(req.Action), req.Code))
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Refresh(r.Context()))
}

// decodeBody parses the JSON request body. A malformed body is reported the
// same way every other failure is: success=false and a message, HTTP 200.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, core.Fail(core.ReasonInvalidAction, "invalid request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
