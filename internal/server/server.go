package server

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"httplab/internal/wire"
)

const (
	DefaultMaxConns = 256
	defaultLinger   = 250 * time.Millisecond
)

// Options configures a Server. Zero values get defaults in New.
type Options struct {
	Addr            string
	Root            string
	Reserved        string
	ResourcesPrefix string
	Limits          wire.Limits
	MaxConns        int
	// ReadTimeout bounds framing a request. Zero means no deadline: a
	// stalled client then holds its admission slot indefinitely.
	ReadTimeout time.Duration
	Logger      *log.Logger
	RequestLog  *RequestLog
}

// Server accepts connections and answers exactly one request on each.
type Server struct {
	opts   Options
	logger *log.Logger
	reqlog *RequestLog
	router *Router
	// lingerTimeout bounds the post-response drain; zero skips it.
	lingerTimeout time.Duration

	mu       sync.Mutex
	ln       net.Listener
	closing  bool
	inflight sync.WaitGroup
}

func New(store *ResourceStore, opts Options) (*Server, error) {
	if store == nil {
		panic("server.New: store is nil")
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Root == "" {
		opts.Root = "./Server"
	}
	if opts.Reserved == "" {
		opts.Reserved = "private"
	}
	if opts.ResourcesPrefix == "" {
		opts.ResourcesPrefix = "resources"
	}
	if opts.Limits == (wire.Limits{}) {
		opts.Limits = wire.DefaultLimits
	}
	if opts.MaxConns <= 0 {
		opts.MaxConns = DefaultMaxConns
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	if err := os.MkdirAll(opts.Root, 0755); err != nil {
		return nil, err
	}
	guard, err := NewGuard(opts.Root, opts.Reserved)
	if err != nil {
		return nil, err
	}

	static := &StaticHandler{Guard: guard, Logger: opts.Logger}
	api := &ResourceAPI{Store: store, Logger: opts.Logger}

	router := NewRouter(guard, static.Serve)
	router.Handle(opts.ResourcesPrefix, api.Mount())

	return &Server{
		opts:   opts,
		logger: opts.Logger,
		reqlog: opts.RequestLog,
		router: router,

		lingerTimeout: defaultLinger,
	}, nil
}

func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts on ln until Shutdown. At most MaxConns connections are
// admitted at once; past that Accept simply waits for a slot.
func (s *Server) Serve(ln net.Listener) error {
	raw := &rawConnListener{Listener: ln}
	ln = netutil.LimitListener(raw, s.opts.MaxConns)
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.ln = ln
	s.mu.Unlock()

	s.logger.Printf("server: listening on %s (root %s, max conns %d)", ln.Addr(), s.opts.Root, s.opts.MaxConns)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosing() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Printf("server: accept: %v", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}
		s.mu.Lock()
		if s.closing {
			s.mu.Unlock()
			conn.Close()
			return nil
		}
		s.inflight.Add(1)
		s.mu.Unlock()
		go s.handleConn(conn, raw.take())
	}
}

// rawConnListener remembers the unwrapped conn of the last Accept.
// LimitListener's conn type hides CloseWrite, which linger needs.
// LimitListener calls Accept synchronously from Serve's goroutine, so take
// right after a successful outer Accept returns the matching conn.
type rawConnListener struct {
	net.Listener
	last net.Conn
}

func (l *rawConnListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	l.last = c
	return c, nil
}

func (l *rawConnListener) take() net.Conn {
	c := l.last
	l.last = nil
	return c
}

func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// Shutdown stops accepting and waits for in-flight connections or ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}
