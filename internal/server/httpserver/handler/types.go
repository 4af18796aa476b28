package handler

import "time"

// Response is the standard API response envelope. /metrics is the only
// endpoint that does not use it.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   string `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message, details string) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// IssueNoncesRequest is the body of POST /nonces. Omitted fields take the
// server defaults; an explicit zero is rejected.
type IssueNoncesRequest struct {
	Length *int `json:"length,omitempty"`
	Count  *int `json:"count,omitempty"`
}

// NonceBatchResponse is the data of a successful /nonces call.
type NonceBatchResponse struct {
	BatchID  string    `json:"batch_id"`
	Length   int       `json:"length"`
	Count    int       `json:"count"`
	Nonces   []string  `json:"nonces"`
	IssuedAt time.Time `json:"issued_at"`
}

// StatusResponse is the data of GET /admin/v1/status.
type StatusResponse struct {
	Status        string         `json:"status"`
	Version       string         `json:"version"`
	Commit        string         `json:"commit"`
	StartedAt     time.Time      `json:"started_at"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	NoncesIssued  uint64         `json:"nonces_issued"`
	Batches       uint64         `json:"batches"`
	Rejected      uint64         `json:"rejected"`
	Guard         GuardStatus    `json:"guard"`
	Limits        LimitsResponse `json:"limits"`
}

// GuardStatus reports clock guard counters.
type GuardStatus struct {
	Instants    uint64 `json:"instants"`
	Stalls      uint64 `json:"stalls"`
	Regressions uint64 `json:"regressions"`
}

// LimitsResponse reports the request limits in force.
type LimitsResponse struct {
	DefaultLength int `json:"default_length"`
	MaxLength     int `json:"max_length"`
	MaxBatch      int `json:"max_batch"`
}

// HealthResponse is the data of the probe endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
	Reason string `json:"reason,omitempty"`
}
