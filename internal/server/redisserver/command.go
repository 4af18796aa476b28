package redisserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/textnonce-go/internal/core/domain"
	"github.com/yndnr/textnonce-go/internal/core/service"
	"github.com/yndnr/textnonce-go/internal/infra/buildinfo"
	"github.com/yndnr/textnonce-go/internal/infra/ratelimit"
	"github.com/yndnr/textnonce-go/internal/telemetry/logger"
)

// formatError converts err to a RESP error line. DomainErrors become
// "ERR <code> <message>[: details]".
func formatError(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		msg := "ERR " + de.Code + " " + de.Message
		if de.Details != "" {
			msg += ": " + de.Details
		}
		return msg
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "ERR " + domain.ErrServiceUnavailable.Code + " command timed out"
	}
	return "ERR " + domain.ErrInternal.Code + " " + domain.ErrInternal.Message
}

func wrongArgs(cmd string) string {
	return "ERR wrong number of arguments for '" + strings.ToLower(cmd) + "' command"
}

// CommandHandler executes commands for a connection.
type CommandHandler struct {
	svc            *service.NonceService
	apiKey         []byte
	limiter        *ratelimit.Limiter
	commandTimeout time.Duration
	logger         *slog.Logger
	stats          func() ServerStats
}

// NewCommandHandler creates a CommandHandler. limiter may be nil.
func NewCommandHandler(svc *service.NonceService, apiKey string, limiter *ratelimit.Limiter, commandTimeout time.Duration, log *slog.Logger) *CommandHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CommandHandler{
		svc:            svc,
		apiKey:         []byte(apiKey),
		limiter:        limiter,
		commandTimeout: commandTimeout,
		logger:         log,
	}
}

// Handle executes one command and buffers its reply on conn.
func (h *CommandHandler) Handle(ctx context.Context, conn *Conn, args [][]byte) {
	rw := conn.rw
	if len(args) == 0 {
		rw.Error("ERR no command")
		return
	}

	cmd := normalizeCommandName(args[0])

	switch cmd {
	case "PING":
		h.handlePing(conn, args)
		return
	case "AUTH":
		h.handleAuth(conn, args)
		return
	case "QUIT":
		rw.SimpleString("OK")
		conn.closing = true
		return
	}

	if len(h.apiKey) > 0 && !conn.authenticated {
		rw.Error("NOAUTH Authentication required.")
		return
	}

	if h.limiter != nil && !h.limiter.Allow(conn.clientIP()) {
		rw.Error("ERR " + domain.ErrRateLimited.Code + " " + domain.ErrRateLimited.Message)
		return
	}

	if h.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.commandTimeout)
		defer cancel()
	}

	switch cmd {
	case "NONCE":
		h.handleNonce(ctx, conn, args)
	case "NONCES":
		h.handleNonces(ctx, conn, args)
	case "INFO":
		h.handleInfo(conn, args)
	default:
		rw.Error(fmt.Sprintf("ERR unknown command '%s'", truncate(string(args[0]), 32)))
	}
}

func (h *CommandHandler) handlePing(conn *Conn, args [][]byte) {
	switch len(args) {
	case 1:
		conn.rw.SimpleString("PONG")
	case 2:
		conn.rw.Bulk(string(args[1]))
	default:
		conn.rw.Error(wrongArgs("PING"))
	}
}

// handleAuth accepts "AUTH key" and the ACL form "AUTH username key"; the
// username is ignored.
func (h *CommandHandler) handleAuth(conn *Conn, args [][]byte) {
	var key []byte
	switch len(args) {
	case 2:
		key = args[1]
	case 3:
		key = args[2]
	default:
		conn.rw.Error(wrongArgs("AUTH"))
		return
	}

	if len(h.apiKey) == 0 {
		conn.rw.Error("ERR AUTH called without any password configured")
		return
	}
	if subtle.ConstantTimeCompare(key, h.apiKey) != 1 {
		conn.authenticated = false
		h.logger.Warn("resp auth failed", "remote", conn.RemoteAddr().String())
		conn.rw.Error("WRONGPASS " + domain.ErrAuthInvalid.Code + " invalid api key")
		return
	}

	conn.authenticated = true
	conn.rw.SimpleString("OK")
}

// NONCE [length]
func (h *CommandHandler) handleNonce(ctx context.Context, conn *Conn, args [][]byte) {
	if len(args) > 2 {
		conn.rw.Error(wrongArgs("NONCE"))
		return
	}
	length, ok := intArg(conn, args, 1)
	if !ok {
		return
	}

	batch, err := h.issue(ctx, conn, &service.IssueRequest{
		Length:    length,
		LengthSet: len(args) > 1,
		Count:     1,
	})
	if err != nil {
		conn.rw.Error(formatError(err))
		return
	}
	conn.rw.Bulk(batch.Nonces[0])
}

// NONCES count [length]
func (h *CommandHandler) handleNonces(ctx context.Context, conn *Conn, args [][]byte) {
	if len(args) < 2 || len(args) > 3 {
		conn.rw.Error(wrongArgs("NONCES"))
		return
	}
	count, ok := intArg(conn, args, 1)
	if !ok {
		return
	}
	if count == 0 {
		// Zero would otherwise mean "default count".
		conn.rw.Array(nil)
		return
	}
	length, ok := intArg(conn, args, 2)
	if !ok {
		return
	}

	batch, err := h.issue(ctx, conn, &service.IssueRequest{
		Length:    length,
		LengthSet: len(args) > 2,
		Count:     count,
		CountSet:  true,
	})
	if err != nil {
		conn.rw.Error(formatError(err))
		return
	}
	conn.rw.Array(batch.Nonces)
}

func (h *CommandHandler) issue(ctx context.Context, conn *Conn, req *service.IssueRequest) (*domain.Batch, error) {
	ctx = logger.WithRequestID(ctx, conn.id)
	resp, err := h.svc.Issue(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Batch, nil
}

// INFO [section]
func (h *CommandHandler) handleInfo(conn *Conn, args [][]byte) {
	section := "all"
	if len(args) > 2 {
		conn.rw.Error(wrongArgs("INFO"))
		return
	}
	if len(args) == 2 {
		section = strings.ToLower(string(args[1]))
	}

	var b strings.Builder
	all := section == "all" || section == "default" || section == "everything"

	if all || section == "server" {
		info := buildinfo.Get()
		st := h.svc.Stats()
		b.WriteString("# Server\r\n")
		fmt.Fprintf(&b, "textnonce_version:%s\r\n", info.Version)
		fmt.Fprintf(&b, "textnonce_git_sha1:%s\r\n", info.Commit)
		fmt.Fprintf(&b, "go_version:%s\r\n", info.GoVersion)
		fmt.Fprintf(&b, "uptime_in_seconds:%d\r\n", int64(st.Uptime.Seconds()))
		b.WriteString("\r\n")
	}
	if (all || section == "clients") && h.stats != nil {
		ss := h.stats()
		b.WriteString("# Clients\r\n")
		fmt.Fprintf(&b, "connected_clients:%d\r\n", ss.ActiveConnections)
		fmt.Fprintf(&b, "total_connections_received:%d\r\n", ss.TotalConnections)
		fmt.Fprintf(&b, "rejected_connections:%d\r\n", ss.RejectedConnections)
		b.WriteString("\r\n")
	}
	if all || section == "nonces" {
		st := h.svc.Stats()
		limits := h.svc.Limits()
		b.WriteString("# Nonces\r\n")
		fmt.Fprintf(&b, "nonces_issued:%d\r\n", st.NoncesIssued)
		fmt.Fprintf(&b, "batches_issued:%d\r\n", st.Batches)
		fmt.Fprintf(&b, "requests_rejected:%d\r\n", st.Rejected)
		fmt.Fprintf(&b, "guard_instants:%d\r\n", st.Guard.Issued)
		fmt.Fprintf(&b, "guard_stalls:%d\r\n", st.Guard.Stalls)
		fmt.Fprintf(&b, "guard_regressions:%d\r\n", st.Guard.Regressions)
		fmt.Fprintf(&b, "default_length:%d\r\n", limits.DefaultLength)
		fmt.Fprintf(&b, "max_length:%d\r\n", limits.MaxLength)
		fmt.Fprintf(&b, "max_batch:%d\r\n", limits.MaxBatch)
		b.WriteString("\r\n")
	}

	conn.rw.Bulk(b.String())
}

// intArg parses args[i] as an integer, writing the error reply on failure.
// A missing argument is 0; callers check len(args) to tell it from an
// explicit zero.
func intArg(conn *Conn, args [][]byte, i int) (int, bool) {
	if i >= len(args) {
		return 0, true
	}
	n, err := strconv.Atoi(string(args[i]))
	if err != nil {
		conn.rw.Error("ERR value is not an integer or out of range")
		return 0, false
	}
	return n, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
