package wire

import (
	"bytes"
	"testing"
	"time"
)

func TestResponseBytes(t *testing.T) {
	res := Text(StatusCreated, "File note.txt was successfully created")
	expect := "HTTP/1.1 201 Created\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Length: 38\r\n" +
		"Connection: close\r\n" +
		"\r\n" +
		"File note.txt was successfully created"
	ExpectEqual(t, expect, string(res.Bytes(false)))
}

func TestResponseHead(t *testing.T) {
	res := &Response{Status: StatusOK, Body: []byte("hello")}
	res.Set("Content-Type", "text/plain")
	expect := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 5\r\nConnection: close\r\n\r\n"
	ExpectEqual(t, expect, string(res.Bytes(true)))

	var w bytes.Buffer
	if err := res.Write(&w, false); err != nil {
		t.Fatal(err)
	}
	ExpectEqual(t, expect+"hello", w.String())
}

func TestResponseDerivedHeaders(t *testing.T) {
	res := &Response{Status: StatusOK, Body: []byte("abc")}
	res.Set("Content-Length", "999")
	res.Set("Connection", "keep-alive")
	ExpectEqual(t, "HTTP/1.1 200 OK\r\nContent-Length: 3\r\nConnection: close\r\n\r\nabc", string(res.Bytes(false)))
}

func TestResponseSet(t *testing.T) {
	res := &Response{Status: StatusOK}
	res.Set("Content-Type", "a")
	res.Set("content-type", "b")
	if len(res.Header) != 1 {
		t.Fatalf("got %d fields, want 1", len(res.Header))
	}
	ExpectEqual(t, "b", res.Get("CONTENT-TYPE"))
}

func TestNotModified(t *testing.T) {
	ExpectEqual(t, "HTTP/1.1 304 Not Modified\r\nContent-Length: 0\r\nConnection: close\r\n\r\n", string(NotModified().Bytes(false)))
}

func TestStatusTable(t *testing.T) {
	cases := map[int]string{
		200: "OK", 201: "Created", 304: "Not Modified", 400: "Bad Request",
		403: "Forbidden", 404: "Not Found", 405: "Method Not Allowed", 500: "Internal Server Error",
	}
	for code, reason := range cases {
		ExpectEqual(t, reason, StatusText(code))
	}
	ExpectEqual(t, "", StatusText(418))

	res := &Response{Status: 418}
	ExpectEqual(t, "HTTP/1.1 500 Internal Server Error\r\nContent-Length: 0\r\nConnection: close\r\n\r\n", string(res.Bytes(false)))
}

func TestJSON(t *testing.T) {
	res := JSON(StatusOK, map[string]any{"id": 1})
	ExpectEqual(t, "application/json", res.Get("Content-Type"))
	ExpectEqual(t, `{"id":1}`, string(res.Body))

	bad := JSON(StatusOK, func() {})
	if bad.Status != StatusInternalServerError {
		t.Errorf("status %d, want 500", bad.Status)
	}
}

func TestTimeFormatRoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 19, 10, 4, 5, 0, time.FixedZone("CET", 3600))
	s := FormatTime(ts)
	ExpectEqual(t, "Wed, 19 Mar 2025 09:04:05 GMT", s)
	back, err := ParseTime(s)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(ts) {
		t.Errorf("got %v, want %v", back, ts)
	}
	if _, err := ParseTime("2025-03-19 10:04:05"); err == nil {
		t.Errorf("local format accepted")
	}
}
