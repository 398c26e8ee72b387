package wire

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"
)

// TimeFormat is the only timestamp format the server emits (Last-Modified)
// or accepts (If-Modified-Since). Always UTC.
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeFormat, strings.TrimSpace(s))
}

type Field struct {
	Name  string
	Value string
}

// Response is a logical response. Content-Length and Connection are never
// stored; Write derives them.
type Response struct {
	Status int
	Header []Field
	Body   []byte
}

// Set replaces the first field with a matching name, or appends one.
func (r *Response) Set(name, value string) {
	for i := range r.Header {
		if strings.EqualFold(r.Header[i].Name, name) {
			r.Header[i].Value = value
			return
		}
	}
	r.Header = append(r.Header, Field{Name: name, Value: value})
}

func (r *Response) Get(name string) string {
	for _, f := range r.Header {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Bytes serializes the response. With head set the body is left out but
// Content-Length still reports its length.
func (r *Response) Bytes(head bool) []byte {
	var b bytes.Buffer
	code := r.Status
	reason := StatusText(code)
	if reason == "" {
		code, reason = StatusInternalServerError, StatusText(StatusInternalServerError)
	}
	b.WriteString("HTTP/1.1 " + strconv.Itoa(code) + " " + reason + CRLF)
	for _, f := range r.Header {
		if strings.EqualFold(f.Name, "Content-Length") || strings.EqualFold(f.Name, "Connection") {
			continue
		}
		b.WriteString(f.Name + ": " + f.Value + CRLF)
	}
	b.WriteString("Content-Length: " + strconv.Itoa(len(r.Body)) + CRLF)
	b.WriteString("Connection: close" + CRLF)
	b.WriteString(CRLF)
	if !head {
		b.Write(r.Body)
	}
	return b.Bytes()
}

func (r *Response) Write(w io.Writer, head bool) error {
	_, err := w.Write(r.Bytes(head))
	return err
}

// Text builds a text/plain response.
func Text(code int, msg string) *Response {
	return &Response{
		Status: code,
		Header: []Field{{"Content-Type", "text/plain"}},
		Body:   []byte(msg),
	}
}

// Status builds a text/plain response whose body is the reason phrase.
func Status(code int) *Response {
	return Text(code, StatusText(code))
}

// JSON encodes v; an encoding failure becomes a 500.
func JSON(code int, v any) *Response {
	b, err := json.Marshal(v)
	if err != nil {
		return Status(StatusInternalServerError)
	}
	return &Response{
		Status: code,
		Header: []Field{{"Content-Type", "application/json"}},
		Body:   b,
	}
}

// NotModified carries no content headers and no body.
func NotModified() *Response {
	return &Response{Status: StatusNotModified}
}
