package handler

import (
	"net/http"

	"github.com/yndnr/textnonce-go/internal/infra/buildinfo"
)

// handleAdminStatus handles GET /admin/v1/status.
func (h *Handler) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	st := h.svc.Stats()
	limits := h.svc.Limits()
	info := buildinfo.Get()

	h.writeJSON(w, r, http.StatusOK, StatusResponse{
		Status:        "running",
		Version:       info.Version,
		Commit:        info.Commit,
		StartedAt:     st.StartedAt.UTC(),
		UptimeSeconds: int64(st.Uptime.Seconds()),
		NoncesIssued:  st.NoncesIssued,
		Batches:       st.Batches,
		Rejected:      st.Rejected,
		Guard: GuardStatus{
			Instants:    st.Guard.Issued,
			Stalls:      st.Guard.Stalls,
			Regressions: st.Guard.Regressions,
		},
		Limits: LimitsResponse{
			DefaultLength: limits.DefaultLength,
			MaxLength:     limits.MaxLength,
			MaxBatch:      limits.MaxBatch,
		},
	})
}
