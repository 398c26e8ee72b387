package wire

import (
	"errors"
	"net/url"
	"strings"
)

// CRLF terminates every request and status line.
const CRLF = "\r\n"

const (
	MethodGet    = "GET"
	MethodHead   = "HEAD"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodDelete = "DELETE"
)

var (
	ErrMalformedRequestLine = errors.New("wire: malformed request line")
	ErrBadTarget            = errors.New("wire: bad request target")
)

// Header holds request headers. Keys are stored lower-cased; not
// map[string][]string like net/http, the last occurrence of a name wins.
type Header map[string]string

func (h Header) Get(name string) string {
	return h[strings.ToLower(name)]
}

func (h Header) Has(name string) bool {
	_, ok := h[strings.ToLower(name)]
	return ok
}

func (h Header) Set(name, value string) {
	h[strings.ToLower(name)] = value
}

// Request is a parsed request. Path is percent-decoded, query-stripped and
// relative: the leading slash of the target is removed.
type Request struct {
	Method string
	Target string
	Path   string
	Query  string
	Proto  string
	Header Header
	Body   []byte
}

// RequestLine is the first line as sent, for logging.
func (r *Request) RequestLine() string {
	return r.Method + " " + r.Target + " " + r.Proto
}

func ParseRequest(f *Frame) (*Request, error) {
	head := string(f.Head)
	line, rest, _ := strings.Cut(head, CRLF)

	fields := strings.Fields(line)
	if len(fields) != 3 {
		return nil, ErrMalformedRequestLine
	}
	req := &Request{
		Method: strings.ToUpper(fields[0]),
		Target: fields[1],
		Proto:  fields[2],
		Header: Header{},
		Body:   f.Body,
	}

	for _, hl := range strings.Split(rest, CRLF) {
		k, v, ok := strings.Cut(hl, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		req.Header.Set(k, strings.TrimSpace(v))
	}

	path, query, err := splitTarget(req.Target)
	if err != nil {
		// Keep what was parsed so the caller can still log the request.
		return req, err
	}
	req.Path = path
	req.Query = query
	return req, nil
}

// splitTarget strips an absolute-form prefix and the query, then decodes.
func splitTarget(target string) (string, string, error) {
	for _, scheme := range []string{"http://", "https://"} {
		if len(target) > len(scheme) && strings.EqualFold(target[:len(scheme)], scheme) {
			target = target[len(scheme):]
			if i := strings.IndexByte(target, '/'); i >= 0 {
				target = target[i:]
			} else {
				target = "/"
			}
			break
		}
	}
	raw, query, _ := strings.Cut(target, "?")
	path, err := url.PathUnescape(raw)
	if err != nil {
		return "", "", ErrBadTarget
	}
	return strings.TrimPrefix(path, "/"), query, nil
}
