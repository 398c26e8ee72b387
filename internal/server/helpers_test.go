package server

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// memoryPersister keeps the document in process; Err makes every Save fail.
type memoryPersister struct {
	doc   Document
	saves int
	err   error
}

func (p *memoryPersister) Load() (Document, error) {
	return p.doc.Clone(), nil
}

func (p *memoryPersister) Save(doc Document) error {
	if p.err != nil {
		return p.err
	}
	p.doc = doc.Clone()
	p.saves++
	return nil
}

func ExpectEqual(t *testing.T, expect, actual string) {
	t.Helper()
	if expect != actual {
		t.Errorf("Got %q, want %q", actual, expect)
	}
}

func ExpectStatus(t *testing.T, expect, actual int) {
	t.Helper()
	if expect != actual {
		t.Errorf("Got status %d, want %d", actual, expect)
	}
}

var errTestDisk = errors.New("disk full")

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type testEnv struct {
	root    string
	store   *ResourceStore
	persist *memoryPersister
	srv     *Server
	reqlog  *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	p := &memoryPersister{doc: Document{}}
	store, err := OpenResourceStore(p)
	if err != nil {
		t.Fatal(err)
	}
	var logBuf bytes.Buffer
	srv, err := New(store, Options{
		Root:       root,
		Logger:     quietLogger(),
		RequestLog: NewRequestLog(&logBuf),
	})
	if err != nil {
		t.Fatal(err)
	}
	srv.lingerTimeout = 0
	return &testEnv{root: root, store: store, persist: p, srv: srv, reqlog: &logBuf}
}

// roundTrip feeds raw to ServeConn over a pipe and returns everything the
// server wrote before closing.
func (e *testEnv) roundTrip(t *testing.T, raw string) string {
	t.Helper()
	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		e.srv.ServeConn(server)
		close(done)
	}()
	go func() {
		_, _ = client.Write([]byte(raw))
	}()
	out, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	<-done
	client.Close()
	return string(out)
}

// do builds a request with an optional body and returns the parsed reply.
func (e *testEnv) do(t *testing.T, method, target, body string, headers ...string) *reply {
	t.Helper()
	raw := method + " " + target + " HTTP/1.1\r\nHost: localhost\r\n"
	for _, h := range headers {
		raw += h + "\r\n"
	}
	if body != "" {
		raw += "Content-Length: " + strconv.Itoa(len(body)) + "\r\n"
	}
	raw += "\r\n" + body
	return parseReply(t, e.roundTrip(t, raw))
}

type reply struct {
	status int
	header map[string]string
	body   string
	raw    string
}

func parseReply(t *testing.T, raw string) *reply {
	t.Helper()
	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	if !ok {
		t.Fatalf("no header terminator in %q", raw)
	}
	lines := strings.Split(head, "\r\n")
	fields := strings.SplitN(lines[0], " ", 3)
	if len(fields) < 3 {
		t.Fatalf("bad status line %q", lines[0])
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		t.Fatalf("bad status code %q", fields[1])
	}
	r := &reply{status: code, header: map[string]string{}, body: body, raw: raw}
	for _, l := range lines[1:] {
		k, v, _ := strings.Cut(l, ":")
		r.header[strings.ToLower(k)] = strings.TrimSpace(v)
	}
	if cl := r.header["content-length"]; cl == "" {
		t.Errorf("response without Content-Length: %q", raw)
	}
	if r.header["connection"] != "close" {
		t.Errorf("response without Connection: close: %q", raw)
	}
	return r
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
