package wire

import (
	"bytes"
	"errors"
	"io"
	"strconv"
)

const chunkSize = 4096

var headTerminator = []byte("\r\n\r\n")

var (
	// ErrNoRequest means the peer went away before a complete header block
	// arrived. Nothing should be written back.
	ErrNoRequest      = errors.New("wire: connection closed before request headers completed")
	ErrHeaderTooLarge = errors.New("wire: request header block too large")
	ErrBodyTooLarge   = errors.New("wire: declared request body too large")
)

// Limits bound what ReadFrame is willing to buffer. Zero disables a limit.
type Limits struct {
	MaxHeaderBytes int
	MaxBodyBytes   int64
}

var DefaultLimits = Limits{
	MaxHeaderBytes: 64 << 10,
	MaxBodyBytes:   32 << 20,
}

// Frame is one request as it came off the wire: the head (request line and
// header lines, without the blank line) and exactly the declared body.
type Frame struct {
	Head []byte
	Body []byte
}

// ReadFrame reads r until the header terminator has been seen, then reads
// Content-Length more bytes. A peer that closes mid-body ends the body at
// whatever arrived. Without Content-Length the body is empty and any trailing
// bytes are dropped.
func ReadFrame(r io.Reader, lim Limits) (*Frame, error) {
	buf := make([]byte, 0, chunkSize)
	chunk := make([]byte, chunkSize)
	end := -1
	eof := false
	for end < 0 {
		n, err := r.Read(chunk)
		if n > 0 {
			from := len(buf) - (len(headTerminator) - 1)
			if from < 0 {
				from = 0
			}
			buf = append(buf, chunk[:n]...)
			if i := bytes.Index(buf[from:], headTerminator); i >= 0 {
				end = from + i
			}
		}
		if lim.MaxHeaderBytes > 0 && (end > lim.MaxHeaderBytes || (end < 0 && len(buf) > lim.MaxHeaderBytes)) {
			return nil, ErrHeaderTooLarge
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				if end < 0 {
					return nil, err
				}
			}
			eof = true
			if end < 0 {
				return nil, ErrNoRequest
			}
		}
	}

	f := &Frame{Head: buf[:end]}
	rest := buf[end+len(headTerminator):]

	cl := declaredLength(f.Head)
	if cl <= 0 {
		return f, nil
	}
	if lim.MaxBodyBytes > 0 && cl > lim.MaxBodyBytes {
		return nil, ErrBodyTooLarge
	}
	if int64(len(rest)) >= cl {
		f.Body = rest[:cl]
		return f, nil
	}

	body := bytes.NewBuffer(make([]byte, 0, len(rest)))
	body.Write(rest)
	if !eof {
		_, err := io.CopyN(body, r, cl-int64(len(rest)))
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	}
	f.Body = body.Bytes()
	return f, nil
}

// declaredLength finds Content-Length in a raw head. Returns -1 when the
// header is missing or not a non-negative integer. Last occurrence wins.
func declaredLength(head []byte) int64 {
	cl := int64(-1)
	lines := bytes.Split(head, []byte(CRLF))
	for _, line := range lines[1:] {
		k, v, ok := bytes.Cut(line, []byte(":"))
		if !ok || !bytes.EqualFold(bytes.TrimSpace(k), []byte("Content-Length")) {
			continue
		}
		v = bytes.TrimSpace(v)
		if !isDigits(v) {
			cl = -1
			continue
		}
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			cl = -1
			continue
		}
		cl = n
	}
	return cl
}

// isDigits reports whether b is a non-empty run of ASCII digits. Signs are
// not part of the Content-Length grammar.
func isDigits(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
