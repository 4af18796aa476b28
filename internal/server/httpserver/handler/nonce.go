package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/yndnr/textnonce-go/internal/core/domain"
	"github.com/yndnr/textnonce-go/internal/core/service"
)

const maxRequestBody = 4 << 10

// handleGetNonces handles GET /nonces?length=N&count=M.
func (h *Handler) handleGetNonces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := &service.IssueRequest{LengthSet: q.Has("length"), CountSet: q.Has("count")}
	var err error
	if req.Length, err = intParam(q.Get("length"), "length"); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if req.Count, err = intParam(q.Get("count"), "count"); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.issue(w, r, req)
}

// handlePostNonces handles POST /nonces. An empty body takes the defaults.
func (h *Handler) handlePostNonces(w http.ResponseWriter, r *http.Request) {
	var req IssueNoncesRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.handleServiceError(w, r, domain.ErrBadRequest.Detailf("invalid request body: %v", err))
		return
	}

	out := &service.IssueRequest{}
	if req.Length != nil {
		out.Length, out.LengthSet = *req.Length, true
	}
	if req.Count != nil {
		out.Count, out.CountSet = *req.Count, true
	}
	h.issue(w, r, out)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, req *service.IssueRequest) {
	resp, err := h.svc.Issue(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	b := resp.Batch
	w.Header().Set("Cache-Control", "no-store")
	h.writeJSON(w, r, http.StatusOK, NonceBatchResponse{
		BatchID:  b.ID,
		Length:   b.Length,
		Count:    len(b.Nonces),
		Nonces:   b.Nonces,
		IssuedAt: b.IssuedAt,
	})
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ErrBadRequest.Detailf("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}
