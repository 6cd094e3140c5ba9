// Package upstream holds the HTTP plumbing shared by the hosted API clients
// (Mapbox geocoding and directions, Google Identity Toolkit).
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrMissingToken is returned when a client has no access token configured.
var ErrMissingToken = errors.New("Mapbox token is missing. Please add NEXT_PUBLIC_MAPBOX_TOKEN to your .env.local file")

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// Error is a failed call to a hosted API: a transport error (Status 0), a
// non-2xx response, or a body that could not be read or parsed.
type Error struct {
	API     string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s: HTTP %d: %s", e.API, e.Status, e.Message)
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: HTTP %d: %v", e.API, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: HTTP %d: %s", e.API, e.Status, http.StatusText(e.Status))
	default:
		return fmt.Sprintf("%s: %v", e.API, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NewHTTPClient returns a client whose transport emits OpenTelemetry spans.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Do sends req and returns the body as a validated JSON string. Non-2xx
// responses become *Error carrying the provider's "message" or
// "error.message" field when present.
func Do(ctx context.Context, client *http.Client, api string, req *http.Request) (string, error) {
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", &Error{API: api, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", &Error{API: api, Status: resp.StatusCode, Err: err}
	}
	js := string(b)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := ""
		if gjson.Valid(js) {
			msg = gjson.Get(js, "message").String()
			if msg == "" {
				msg = gjson.Get(js, "error.message").String()
			}
		}
		return "", &Error{API: api, Status: resp.StatusCode, Message: msg}
	}

	if !gjson.Valid(js) {
		return "", &Error{API: api, Status: resp.StatusCode, Err: errors.New("invalid JSON in response")}
	}
	return js, nil
}

// Outcome classifies an error for metrics labels.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var ue *Error
	if errors.As(err, &ue) && ue.Status != 0 {
		return fmt.Sprintf("http_%d", ue.Status)
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return "error"
}
