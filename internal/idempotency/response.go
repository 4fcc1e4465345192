package idempotency

import "net/http"

// HeaderPair is a single response header as stored for replay.
// Headers are kept as an ordered list rather than a map: duplicate names
// with distinct values must round-trip in their original order.
// Value serializes as base64 in JSON, preserving raw bytes.
type HeaderPair struct {
	Name  string `json:"name"`
	Value []byte `json:"value"`
}

// Response is the captured HTTP outcome of a request.
type Response struct {
	StatusCode int
	Headers    []HeaderPair
	Body       []byte
}

// NewResponse builds a Response from a status code, an ordered header list,
// and a body.
func NewResponse(statusCode int, headers []HeaderPair, body []byte) Response {
	return Response{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       body,
	}
}

// Write replays the response on w: headers in stored order (appending, so
// duplicates survive), then status code, then body.
func (r Response) Write(w http.ResponseWriter) error {
	for _, h := range r.Headers {
		w.Header().Add(h.Name, string(h.Value))
	}
	w.WriteHeader(r.StatusCode)
	_, err := w.Write(r.Body)
	return err
}
