package server

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"httplab/internal/shared"
	"httplab/internal/wire"
)

// RequestLog appends one entry per framed request: request line, raw header
// lines and the body. Meant for operators, not for machines.
type RequestLog struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

func OpenRequestLog(path string) (*RequestLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &RequestLog{w: f, c: f}, nil
}

func NewRequestLog(w io.Writer) *RequestLog {
	return &RequestLog{w: w}
}

func (l *RequestLog) Close() error {
	if l == nil || l.c == nil {
		return nil
	}
	return l.c.Close()
}

// Record writes an entry for f. req may be nil or partially filled when
// parsing failed; the raw head is logged either way.
func (l *RequestLog) Record(id, remote string, f *wire.Frame, req *wire.Request) error {
	if l == nil {
		return nil
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "[%s] id=%s remote=%s\n", TimeNow().UTC().Format(time.RFC3339), id, remote)
	b.WriteString(strings.ReplaceAll(string(f.Head), wire.CRLF, "\n"))
	b.WriteString("\n\n")
	if len(f.Body) > 0 {
		contentType := ""
		if req != nil {
			contentType = req.Header.Get("Content-Type")
		}
		if isTextual(contentType, f.Body) {
			b.Write(f.Body)
			b.WriteString("\n")
		} else {
			fmt.Fprintf(&b, "<%d bytes sha256=%s>\n", len(f.Body), shared.BodySHA256(f.Body))
		}
	}
	b.WriteString("---\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.w.Write(b.Bytes())
	return err
}

func isTextual(contentType string, body []byte) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case ct == "":
		return utf8.Valid(body)
	case strings.HasPrefix(ct, "text/"),
		ct == "application/json",
		ct == "application/xml",
		ct == "application/x-www-form-urlencoded":
		return true
	}
	return false
}

// TimeNow abstracts time for tests.
var TimeNow = func() time.Time { return time.Now() }
