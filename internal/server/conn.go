package server

import (
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"httplab/internal/wire"
)

const lingerDrainBytes = 256 << 10

func (s *Server) handleConn(conn, raw net.Conn) {
	defer s.inflight.Done()
	s.serveConn(conn, raw)
}

// ServeConn answers one request on conn and closes it. A peer that leaves
// before finishing its headers gets nothing back.
func (s *Server) ServeConn(conn net.Conn) {
	s.serveConn(conn, conn)
}

// serveConn does the work of ServeConn. raw is the transport under conn and
// is only used to half-close it after the response.
func (s *Server) serveConn(conn, raw net.Conn) {
	defer conn.Close()
	start := time.Now()
	remote := "unknown"
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	if s.opts.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(start.Add(s.opts.ReadTimeout))
	}

	var (
		res  *wire.Response
		head bool
		line string
	)
	frame, err := wire.ReadFrame(conn, s.opts.Limits)
	switch {
	case err == nil:
		res, head, line = s.handleFrame(frame, remote)
	case errors.Is(err, wire.ErrNoRequest):
		return
	case errors.Is(err, wire.ErrHeaderTooLarge):
		res, line = wire.Status(wire.StatusInternalServerError), "<header too large>"
	case errors.Is(err, wire.ErrBodyTooLarge):
		res, line = wire.Status(wire.StatusBadRequest), "<body too large>"
	default:
		s.logger.Printf("server: %s: read: %v", remote, err)
		return
	}

	if err := res.Write(conn, head); err != nil {
		s.logger.Printf("server: %s: write: %v", remote, err)
		return
	}
	s.logger.Printf("server: %s %q %d %dms", remote, line, res.Status, time.Since(start).Milliseconds())
	s.linger(conn, raw)
}

// handleFrame parses, logs and routes one framed request. It reports
// whether the body must be withheld (HEAD) and the line to log.
func (s *Server) handleFrame(f *wire.Frame, remote string) (*wire.Response, bool, string) {
	req, err := wire.ParseRequest(f)
	if lerr := s.reqlog.Record(uuid.NewString(), remote, f, req); lerr != nil {
		s.logger.Printf("server: request log: %v", lerr)
	}

	switch {
	case errors.Is(err, wire.ErrMalformedRequestLine):
		line, _, _ := strings.Cut(string(f.Head), wire.CRLF)
		return wire.Status(wire.StatusInternalServerError), false, line
	case errors.Is(err, wire.ErrBadTarget):
		return wire.Status(wire.StatusBadRequest), req.Method == wire.MethodHead, req.RequestLine()
	case err != nil:
		return wire.Status(wire.StatusInternalServerError), false, ""
	}
	return s.dispatch(req), req.Method == wire.MethodHead, req.RequestLine()
}

// dispatch turns a handler panic into a 500 rather than a dropped
// connection.
func (s *Server) dispatch(req *wire.Request) (res *wire.Response) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Printf("server: panic serving %q: %v", req.RequestLine(), p)
			res = wire.Status(wire.StatusInternalServerError)
		}
	}()
	res = s.router.Serve(req)
	if res == nil {
		res = wire.Status(wire.StatusInternalServerError)
	}
	return res
}

// linger reads whatever the client is still sending, for a short while, so
// closing with unread input does not reset the connection before the
// client has read the response.
func (s *Server) linger(conn, raw net.Conn) {
	if s.lingerTimeout <= 0 {
		return
	}
	if cw, ok := raw.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
	_ = conn.SetReadDeadline(time.Now().Add(s.lingerTimeout))
	_, _ = io.Copy(io.Discard, io.LimitReader(conn, lingerDrainBytes))
}
