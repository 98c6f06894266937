package meteofrance

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// Response is a successful (2xx) API response with its body fully read.
type Response struct {
	Endpoint   string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the media type of the response without parameters.
func (r *Response) ContentType() string {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mediaType
}

// Decode unmarshals the body into v, choosing XML when the server declared an
// XML media type and JSON otherwise. Any failure is an *UpstreamError: a body
// that cannot be decoded is a payload of the wrong shape.
func (r *Response) Decode(v any) error {
	body := bytes.TrimSpace(r.Body)
	if len(body) == 0 {
		return r.payloadError(errors.New("empty body"))
	}

	var err error
	if isXML(r.ContentType()) {
		err = xml.Unmarshal(body, v)
	} else {
		err = json.Unmarshal(body, v)
	}
	if err != nil {
		return r.payloadError(fmt.Errorf("decode payload: %w", err))
	}
	return nil
}

// PayloadError builds the *UpstreamError returned for a well-formed response
// whose content is missing required parts.
func (r *Response) PayloadError(reason string) error {
	return r.payloadError(errors.New(reason))
}

func (r *Response) payloadError(err error) error {
	return &UpstreamError{Endpoint: r.Endpoint, StatusCode: r.StatusCode, Err: err}
}

func isXML(mediaType string) bool {
	return mediaType == "application/xml" || mediaType == "text/xml" || strings.HasSuffix(mediaType, "+xml")
}
