package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/timelinekit/timeline/internal/utils"
)

const maxRequestBody = 64 << 10

// Enhancer is what the HTTP handler needs from a Service.
type Enhancer interface {
	Configured() error
	Enhance(ctx context.Context, req Request) (string, error)
}

// NewHandler serves POST requests carrying a Request and answers with a
// Response. OPTIONS is answered for CORS preflight.
func NewHandler(svc Enhancer) http.Handler {
	return &handler{svc: svc}
}

type handler struct {
	svc Enhancer
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORS(w.Header())

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		writeJSON(w, http.StatusMethodNotAllowed, Response{Error: "Method not allowed"})
		return
	}

	if err := h.svc.Configured(); err != nil {
		writeError(w, err)
		return
	}

	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: "Invalid JSON body"})
		return
	}

	out, err := h.svc.Enhance(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{EnhancedText: out})
}

func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeError(w http.ResponseWriter, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = internalError(err.Error())
	}
	writeJSON(w, e.Status, Response{Error: e.Message})
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		utils.Log.Debugf("[enhance] failed to write response: %v", err)
	}
}
