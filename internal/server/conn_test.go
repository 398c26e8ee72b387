package server

import (
	"net"
	"strings"
	"testing"

	"httplab/internal/wire"
)

func TestResourceScenarios(t *testing.T) {
	e := newTestEnv(t)

	r := e.do(t, "POST", "/resources/cats", `{"name":"Tom"}`, "Content-Type: application/json")
	ExpectStatus(t, wire.StatusCreated, r.status)

	r = e.do(t, "GET", "/resources/cats", "")
	ExpectStatus(t, wire.StatusOK, r.status)
	ExpectEqual(t, `[{"id":1,"name":"Tom"}]`, r.body)
	ExpectEqual(t, "application/json", r.header["content-type"])

	ExpectStatus(t, wire.StatusOK, e.do(t, "DELETE", "/resources/cats/1", "").status)
	ExpectStatus(t, wire.StatusNotFound, e.do(t, "DELETE", "/resources/cats/1", "").status)

	if e.persist.saves != 2 {
		t.Errorf("saves = %d, want 2", e.persist.saves)
	}
}

func TestResourcesPrefixOnly(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "POST", "/resources/dogs", `{"name":"Rex"}`)

	r := e.do(t, "GET", "/resources?pretty=1", "")
	ExpectStatus(t, wire.StatusOK, r.status)
	ExpectEqual(t, `{"dogs":[{"id":1,"name":"Rex"}]}`, r.body)

	ExpectStatus(t, wire.StatusMethodNotAllowed, e.do(t, "PATCH", "/resources/dogs", "{}").status)
	ExpectStatus(t, wire.StatusBadRequest, e.do(t, "GET", "/resources/dogs/1/x", "").status)
}

func TestMalformedRequestLine(t *testing.T) {
	e := newTestEnv(t)
	for _, raw := range []string{
		"GARBAGE\r\n\r\n",
		"GET /\r\n\r\n",
		"GET / HTTP/1.1 extra\r\n\r\n",
		"\r\n\r\n",
	} {
		r := parseReply(t, e.roundTrip(t, raw))
		if r.status != wire.StatusInternalServerError {
			t.Errorf("%q: got %d, want 500", raw, r.status)
		}
	}
}

func TestBadPercentEscapeIs400(t *testing.T) {
	e := newTestEnv(t)
	r := parseReply(t, e.roundTrip(t, "GET /bad%zz HTTP/1.1\r\n\r\n"))
	ExpectStatus(t, wire.StatusBadRequest, r.status)
}

func TestNoRequestGetsNoResponse(t *testing.T) {
	e := newTestEnv(t)
	for _, raw := range []string{"", "GET / HTTP/1.1\r\nHost: x"} {
		client, server := net.Pipe()
		done := make(chan struct{})
		go func() {
			e.srv.ServeConn(server)
			close(done)
		}()
		if raw != "" {
			if _, err := client.Write([]byte(raw)); err != nil {
				t.Fatal(err)
			}
		}
		client.Close()
		<-done
	}
	ExpectEqual(t, "", e.reqlog.String())
}

func TestOversizeRequests(t *testing.T) {
	e := newTestEnv(t)
	e.srv.opts.Limits = wire.Limits{MaxHeaderBytes: 64, MaxBodyBytes: 8}

	raw := "GET / HTTP/1.1\r\nX-Pad: " + strings.Repeat("a", 100) + "\r\n\r\n"
	ExpectStatus(t, wire.StatusInternalServerError, parseReply(t, e.roundTrip(t, raw)).status)

	raw = "PUT /f.txt HTTP/1.1\r\nContent-Length: 9\r\n\r\n123456789"
	ExpectStatus(t, wire.StatusBadRequest, parseReply(t, e.roundTrip(t, raw)).status)
}

func TestHeadOfMissingFileHasNoBody(t *testing.T) {
	e := newTestEnv(t)
	r := e.do(t, "HEAD", "/missing.txt", "")
	ExpectStatus(t, wire.StatusNotFound, r.status)
	ExpectEqual(t, "", r.body)
	ExpectEqual(t, "9", r.header["content-length"])
}

func TestAbsoluteFormTarget(t *testing.T) {
	e := newTestEnv(t)
	writeFile(t, e.root+"/a.txt", "abs")
	r := e.do(t, "GET", "http://localhost:8080/a.txt", "")
	ExpectStatus(t, wire.StatusOK, r.status)
	ExpectEqual(t, "abs", r.body)
}

func TestHandlerPanicIs500(t *testing.T) {
	e := newTestEnv(t)
	e.srv.router.Handle("boom", func(req *wire.Request, target Resolved) *wire.Response {
		panic("kaboom")
	})
	e.srv.router.Handle("nil", func(req *wire.Request, target Resolved) *wire.Response {
		return nil
	})
	ExpectStatus(t, wire.StatusInternalServerError, e.do(t, "GET", "/boom", "").status)
	ExpectStatus(t, wire.StatusInternalServerError, e.do(t, "GET", "/nil", "").status)
}

func TestRequestLogEntries(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "PUT", "/note.txt", "hello there", "Content-Type: text/plain")
	e.do(t, "PUT", "/blob.bin", "\x00\x01\x02", "Content-Type: application/octet-stream")
	parseReply(t, e.roundTrip(t, "BROKEN\r\n\r\n"))

	out := e.reqlog.String()
	if n := strings.Count(out, "\n---\n"); n != 3 {
		t.Errorf("got %d entries, want 3:\n%s", n, out)
	}
	for _, want := range []string{
		"PUT /note.txt HTTP/1.1\n",
		"Content-Type: text/plain\n",
		"\nhello there\n---\n",
		"<3 bytes sha256=",
		"BROKEN\n",
		"remote=pipe",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("request log missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x00\x01\x02") {
		t.Error("binary body logged verbatim")
	}
}
