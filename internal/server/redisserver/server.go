package redisserver

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/textnonce-go/internal/core/service"
	"github.com/yndnr/textnonce-go/internal/infra/ratelimit"
	"github.com/yndnr/textnonce-go/pkg/cmap"
)

// Config holds the RESP server configuration.
type Config struct {
	Address string
	// TLSConfig, when set, wraps the listener in TLS.
	TLSConfig *tls.Config
	// APIKey, when set, must be presented with AUTH.
	APIKey string
	// ReadTimeout bounds reading one command once its first byte arrived.
	ReadTimeout time.Duration
	// WriteTimeout bounds flushing one reply.
	WriteTimeout time.Duration
	// IdleTimeout closes connections with no command for this long.
	IdleTimeout time.Duration
	// CommandTimeout bounds executing one command.
	CommandTimeout time.Duration
	// MaxConnections caps concurrent clients. 0 means unlimited.
	MaxConnections int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:        "127.0.0.1:6380",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    5 * time.Minute,
		CommandTimeout: 5 * time.Second,
		MaxConnections: 1024,
	}
}

// ServerStats are connection counters reported by INFO.
type ServerStats struct {
	ActiveConnections   int
	TotalConnections    uint64
	RejectedConnections uint64
}

// Server is the RESP listener.
type Server struct {
	cfg     *Config
	handler *CommandHandler
	logger  *slog.Logger

	mu      sync.Mutex
	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup

	conns    *cmap.Map[*Conn, struct{}]
	slots    chan struct{}
	total    atomic.Uint64
	rejected atomic.Uint64
	nextID   atomic.Uint64
}

// Conn is one client connection. Its state is owned by the goroutine
// serving it.
type Conn struct {
	id      string
	netConn net.Conn
	br      *bufio.Reader
	rw      *replyWriter

	authenticated bool
	closing       bool

	closed atomic.Bool
}

func newConn(id string, c net.Conn) *Conn {
	return &Conn{
		id:      id,
		netConn: c,
		br:      bufio.NewReader(c),
		rw:      newReplyWriter(c),
	}
}

// Close closes the connection once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

func (c *Conn) clientIP() string {
	addr := c.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// New creates a RESP server for svc. limiter may be nil.
func New(cfg *Config, svc *service.NonceService, limiter *ratelimit.Limiter, log *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		logger: log,
		conns:  cmap.New[*Conn, struct{}](),
	}
	if cfg.MaxConnections > 0 {
		s.slots = make(chan struct{}, cfg.MaxConnections)
	}
	s.handler = NewCommandHandler(svc, cfg.APIKey, limiter, cfg.CommandTimeout, log)
	s.handler.stats = s.Stats
	return s
}

// ListenAndServe listens on cfg.Address and serves until Shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until Shutdown or ctx is done. It returns
// nil on a clean stop.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	scheme := "resp"
	if s.cfg.TLSConfig != nil {
		ln = tls.NewListener(ln, s.cfg.TLSConfig)
		scheme = "resp+tls"
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.running.Store(true)

	s.logger.Info("resp server listening", "addr", ln.Addr().String(), "scheme", scheme)

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.total.Add(1)

		if !s.acquire() {
			s.rejected.Add(1)
			s.logger.Warn("resp connection rejected", "remote", c.RemoteAddr().String(), "reason", "max connections")
			_ = c.SetWriteDeadline(time.Now().Add(time.Second))
			_, _ = io.WriteString(c, "-ERR max number of clients reached\r\n")
			_ = c.Close()
			continue
		}

		conn := newConn("conn-"+strconv.FormatUint(s.nextID.Add(1), 10), c)
		s.conns.Set(conn, struct{}{})
		if !s.running.Load() {
			// Shutdown already swept the connection set.
			_ = conn.Close()
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.release()
			defer s.conns.Delete(conn)
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) acquire() bool {
	if s.slots == nil {
		return true
	}
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Server) release() {
	if s.slots != nil {
		<-s.slots
	}
}

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stats returns connection counters.
func (s *Server) Stats() ServerStats {
	return ServerStats{
		ActiveConnections:   s.conns.Count(),
		TotalConnections:    s.total.Load(),
		RejectedConnections: s.rejected.Load(),
	}
}

// Shutdown stops accepting, closes open connections and waits for their
// goroutines until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var err error
	s.mu.Lock()
	if s.ln != nil {
		if cerr := s.ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}
	s.mu.Unlock()

	s.conns.Range(func(c *Conn, _ struct{}) bool {
		_ = c.Close()
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	defer c.Close()

	readTimeout := orDefault(s.cfg.ReadTimeout, 30*time.Second)
	writeTimeout := orDefault(s.cfg.WriteTimeout, 30*time.Second)
	idleTimeout := orDefault(s.cfg.IdleTimeout, 5*time.Minute)

	log := s.logger.With("conn", c.id, "remote", c.RemoteAddr().String())
	log.Debug("resp connection opened")
	defer log.Debug("resp connection closed")

	flush := func() bool {
		if err := c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return false
		}
		return c.rw.Flush() == nil
	}

	for {
		// Idle clients may wait up to idleTimeout for their next command.
		if err := c.netConn.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Debug("resp connection read ended", "error", err)
			}
			return
		}

		// Once a command starts it must arrive within readTimeout.
		if err := c.netConn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return
		}

		args, err := ReadCommand(c.br)
		if err != nil {
			var netErr net.Error
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			case errors.As(err, &netErr) && netErr.Timeout():
				log.Debug("resp command read timed out")
			case errors.Is(err, ErrLimitExceeded):
				log.Warn("resp protocol limit exceeded", "error", err)
				c.rw.Error("ERR protocol limit exceeded")
				flush()
			default:
				c.rw.Error("ERR Protocol error: " + err.Error())
				flush()
			}
			return
		}
		if len(args) == 0 {
			continue
		}

		s.handler.Handle(ctx, c, args)

		if !flush() || c.closing {
			return
		}
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
