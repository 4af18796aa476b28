package connection

import (
	"strconv"
	"time"

	"github.com/yndnr/textnonce-go/internal/cli/output"
)

// NonceBatch is the data of GET/POST /nonces.
type NonceBatch struct {
	BatchID  string    `json:"batch_id" yaml:"batch_id"`
	Length   int       `json:"length" yaml:"length"`
	Count    int       `json:"count" yaml:"count"`
	Nonces   []string  `json:"nonces" yaml:"nonces"`
	IssuedAt time.Time `json:"issued_at" yaml:"issued_at"`
}

// Table prints one nonce per line so the output can be piped.
func (b *NonceBatch) Table() *output.Table {
	t := &output.Table{}
	for _, n := range b.Nonces {
		t.AddRow(n)
	}
	return t
}

// Health is the data of /health and /ready.
type Health struct {
	Status string `json:"status" yaml:"status"`
	Time   string `json:"time" yaml:"time"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Status is the data of /admin/v1/status.
type Status struct {
	Status        string    `json:"status" yaml:"status"`
	Version       string    `json:"version" yaml:"version"`
	Commit        string    `json:"commit" yaml:"commit"`
	StartedAt     time.Time `json:"started_at" yaml:"started_at"`
	UptimeSeconds int64     `json:"uptime_seconds" yaml:"uptime_seconds"`
	NoncesIssued  uint64    `json:"nonces_issued" yaml:"nonces_issued"`
	Batches       uint64    `json:"batches" yaml:"batches"`
	Rejected      uint64    `json:"rejected" yaml:"rejected"`
	Guard         struct {
		Instants    uint64 `json:"instants" yaml:"instants"`
		Stalls      uint64 `json:"stalls" yaml:"stalls"`
		Regressions uint64 `json:"regressions" yaml:"regressions"`
	} `json:"guard" yaml:"guard"`
	Limits struct {
		DefaultLength int `json:"default_length" yaml:"default_length"`
		MaxLength     int `json:"max_length" yaml:"max_length"`
		MaxBatch      int `json:"max_batch" yaml:"max_batch"`
	} `json:"limits" yaml:"limits"`
}

// Table renders the status as FIELD/VALUE rows.
func (s *Status) Table() *output.Table {
	t := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	t.AddRow("status", s.Status)
	t.AddRow("version", s.Version+" ("+s.Commit+")")
	t.AddRow("started_at", s.StartedAt.Format(time.RFC3339))
	t.AddRow("uptime", (time.Duration(s.UptimeSeconds) * time.Second).String())
	t.AddRow("nonces_issued", strconv.FormatUint(s.NoncesIssued, 10))
	t.AddRow("batches", strconv.FormatUint(s.Batches, 10))
	t.AddRow("rejected", strconv.FormatUint(s.Rejected, 10))
	t.AddRow("guard.instants", strconv.FormatUint(s.Guard.Instants, 10))
	t.AddRow("guard.stalls", strconv.FormatUint(s.Guard.Stalls, 10))
	t.AddRow("guard.regressions", strconv.FormatUint(s.Guard.Regressions, 10))
	t.AddRow("limits.default_length", strconv.Itoa(s.Limits.DefaultLength))
	t.AddRow("limits.max_length", strconv.Itoa(s.Limits.MaxLength))
	t.AddRow("limits.max_batch", strconv.Itoa(s.Limits.MaxBatch))
	return t
}
