package predict

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/ayusman/mudra/internal/landmark"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultEndpoint is the hosted classifier the client talks to when none is configured.
const DefaultEndpoint = "https://idmiunzktedg.us-east-1.clawcloudrun.com/predict"

// RequestIDHeader carries a per-request uuid so classifier logs can be correlated.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 512

// maxResponseBody bounds how much of a successful response is read.
const maxResponseBody = 1 << 20

// Config holds the options for a Client.
type Config struct {
	// Endpoint is the classifier URL. Defaults to DefaultEndpoint.
	Endpoint string

	// Timeout bounds a single request. Zero leaves it to the transport.
	Timeout time.Duration

	// Encoders are tried in order until one yields a recognized label.
	// Defaults to Normalized only.
	Encoders []Encoder

	// HTTPClient overrides the client used for requests. Timeout is ignored
	// when it is set.
	HTTPClient *http.Client

	// Observer receives one Event per attempt. Defaults to a no-op.
	Observer Observer
}

// Client classifies landmark sets through a remote endpoint. It holds no
// per-call state and is safe for concurrent use.
type Client struct {
	endpoint string
	http     *http.Client
	encoders []Encoder
	observer Observer
}

type predictRequest struct {
	Landmarks []float64 `json:"landmarks"`
}

type predictResponse struct {
	Prediction string `json:"prediction"`
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q must be an http or https URL", endpoint)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	encs := cfg.Encoders
	if len(encs) == 0 {
		encs = []Encoder{Normalized}
	}

	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	return &Client{
		endpoint: endpoint,
		http:     httpClient,
		encoders: append([]Encoder(nil), encs...),
		observer: observer,
	}, nil
}

// Endpoint returns the classifier URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// GetPredictedLabel classifies s and returns the label, or false when no
// direction was recognized for any reason. It never returns an error.
func (c *Client) GetPredictedLabel(ctx context.Context, s landmark.Set) (Label, bool) {
	label, err := c.Predict(ctx, s)
	if err != nil {
		return LabelNone, false
	}
	return label, true
}

// Predict classifies s, trying each configured encoder in order and
// returning the first recognized label. When every attempt fails, the error
// of the last attempt is returned.
func (c *Client) Predict(ctx context.Context, s landmark.Set) (Label, error) {
	if err := landmark.Validate(s); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidShape, err)
		c.observer.OnResult(Event{Err: err, At: time.Now()})
		return LabelNone, err
	}

	var lastErr error
	for _, enc := range c.encoders {
		label, err := c.attempt(ctx, enc, s)
		if err == nil {
			return label, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return LabelNone, lastErr
}

// attempt performs one POST with enc and reports the outcome to the observer.
func (c *Client) attempt(ctx context.Context, enc Encoder, s landmark.Set) (Label, error) {
	ev := Event{
		RequestID: uuid.NewString(),
		Encoder:   enc.Name,
		At:        time.Now(),
	}
	defer func() {
		ev.Latency = time.Since(ev.At)
		c.observer.OnResult(ev)
	}()

	ev.Label, ev.Raw, ev.Status, ev.Err = c.post(ctx, ev.RequestID, enc.Encode(s))
	return ev.Label, ev.Err
}

func (c *Client) post(ctx context.Context, requestID string, values []float64) (label Label, raw string, status int, err error) {
	body, err := json.Marshal(predictRequest{Landmarks: values})
	if err != nil {
		// Only reachable when an encoder overflows to ±Inf; nothing was sent.
		return LabelNone, "", 0, fmt.Errorf("%w: encode request: %w", ErrInvalidShape, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return LabelNone, "", 0, fmt.Errorf("%w: build request: %w", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return LabelNone, "", 0, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return LabelNone, "", resp.StatusCode, fmt.Errorf("%w: %s: %s", ErrStatus, resp.Status, bytes.TrimSpace(snippet))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return LabelNone, "", resp.StatusCode, fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}

	// Unmarshal rejects trailing data after the first value.
	var out predictResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return LabelNone, "", resp.StatusCode, fmt.Errorf("%w: %w", ErrUnparsable, err)
	}

	label, ok := ParseLabel(out.Prediction)
	if !ok {
		return LabelNone, out.Prediction, resp.StatusCode, fmt.Errorf("%w: %q", ErrUnrecognizedLabel, out.Prediction)
	}
	return label, out.Prediction, resp.StatusCode, nil
}
