package predict

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/landmark"
)

// recorder collects observer events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnResult(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// classifier returns a test server that answers every request with status
// and body, and counts the requests it receives.
func classifier(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()

	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestClient_GetPredictedLabel(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Label
		ok     bool
	}{
		{"case folded", http.StatusOK, `{"prediction":"Up"}`, Up, true},
		{"lowercase", http.StatusOK, `{"prediction":"left"}`, Left, true},
		{"uppercase", http.StatusOK, `{"prediction":"RIGHT"}`, Right, true},
		{"down is returned as is", http.StatusOK, `{"prediction":"down"}`, Down, true},
		{"unknown label", http.StatusOK, `{"prediction":"sideways"}`, LabelNone, false},
		{"padded label is not trimmed", http.StatusOK, `{"prediction":" up "}`, LabelNone, false},
		{"missing field", http.StatusOK, `{"label":"up"}`, LabelNone, false},
		{"null prediction", http.StatusOK, `{"prediction":null}`, LabelNone, false},
		{"non-string prediction", http.StatusOK, `{"prediction":3}`, LabelNone, false},
		{"malformed json", http.StatusOK, `not json`, LabelNone, false},
		{"trailing data", http.StatusOK, `{"prediction":"up"} this is not json`, LabelNone, false},
		{"two values", http.StatusOK, `{"prediction":"up"}{"prediction":"down"}`, LabelNone, false},
		{"trailing newline", http.StatusOK, "{\"prediction\":\"up\"}\n", Up, true},
		{"empty body", http.StatusOK, ``, LabelNone, false},
		{"server error", http.StatusInternalServerError, `{"prediction":"up"}`, LabelNone, false},
		{"bad request", http.StatusBadRequest, `{"error":"bad landmarks"}`, LabelNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := classifier(t, tt.status, tt.body)
			c := newTestClient(t, Config{Endpoint: srv.URL})

			got, ok := c.GetPredictedLabel(context.Background(), landmark.OpenPalm())

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	rec := &recorder{}
	c := newTestClient(t, Config{Endpoint: endpoint, Observer: rec})

	assert.NotPanics(t, func() {
		got, ok := c.GetPredictedLabel(context.Background(), landmark.OpenPalm())
		assert.False(t, ok)
		assert.Equal(t, LabelNone, got)
	})

	_, err := c.Predict(context.Background(), landmark.OpenPalm())
	assert.ErrorIs(t, err, ErrNetwork)

	events := rec.all()
	require.NotEmpty(t, events)
	assert.Equal(t, "network", Kind(events[0].Err))
}

func TestClient_InvalidShapeMakesNoRequest(t *testing.T) {
	srv, calls := classifier(t, http.StatusOK, `{"prediction":"up"}`)
	c := newTestClient(t, Config{Endpoint: srv.URL})

	nan := landmark.OpenPalm()
	nan[landmark.IndexTip].X = math.NaN()

	inputs := map[string]landmark.Set{
		"nil":       nil,
		"too short": landmark.OpenPalm()[:20],
		"too long":  append(landmark.OpenPalm(), landmark.Point3D{}),
		"nan":       nan,
	}

	for name, s := range inputs {
		t.Run(name, func(t *testing.T) {
			got, ok := c.GetPredictedLabel(context.Background(), s)
			assert.False(t, ok)
			assert.Equal(t, LabelNone, got)

			_, err := c.Predict(context.Background(), s)
			assert.ErrorIs(t, err, ErrInvalidShape)
		})
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestClient_UnencodableValuesMakeNoRequest(t *testing.T) {
	srv, calls := classifier(t, http.StatusOK, `{"prediction":"up"}`)
	rec := &recorder{}
	c := newTestClient(t, Config{Endpoint: srv.URL, Encoders: []Encoder{Relative}, Observer: rec})

	// Both coordinates are finite but their difference overflows.
	s := landmark.OpenPalm()
	s[landmark.Wrist].X = -1e308
	s[landmark.IndexTip].X = 1e308

	_, err := c.Predict(context.Background(), s)

	assert.ErrorIs(t, err, ErrInvalidShape)
	assert.NotErrorIs(t, err, ErrNetwork)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, "invalid_shape", Kind(events[0].Err))
}

func TestClient_RequestShape(t *testing.T) {
	var (
		gotMethod      string
		gotContentType string
		gotRequestID   string
		gotBody        map[string][]float64
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get(RequestIDHeader)
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, `{"prediction":"up"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{Endpoint: srv.URL})
	s := landmark.PointingLeft()

	_, ok := c.GetPredictedLabel(context.Background(), s)
	require.True(t, ok)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.NotEmpty(t, gotRequestID)

	values := gotBody["landmarks"]
	require.Len(t, values, landmark.FlatLen)

	want := landmark.Flatten(landmark.Normalize(s))
	for i := range want {
		assert.InDelta(t, want[i], values[i], 1e-12, "value %d", i)
	}
	assert.Equal(t, 0.0, values[0], "wrist x is the origin")
}

func TestClient_EncoderOrder(t *testing.T) {
	// The classifier only recognizes raw coordinates: the wrist x of the
	// absolute encoding is non-zero.
	var seen []float64
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string][]float64
		json.NewDecoder(r.Body).Decode(&body)

		mu.Lock()
		seen = append(seen, body["landmarks"][0])
		mu.Unlock()

		if body["landmarks"][0] == 0 {
			io.WriteString(w, `{"prediction":"unknown"}`)
			return
		}
		io.WriteString(w, `{"prediction":"Left"}`)
	}))
	defer srv.Close()

	rec := &recorder{}
	c := newTestClient(t, Config{
		Endpoint: srv.URL,
		Encoders: []Encoder{Normalized, Relative, Absolute},
		Observer: rec,
	})
	s := landmark.PointingLeft()

	got, ok := c.GetPredictedLabel(context.Background(), s)

	require.True(t, ok)
	assert.Equal(t, Left, got)
	assert.Equal(t, []float64{0, 0, s[landmark.Wrist].X}, seen)

	events := rec.all()
	require.Len(t, events, 3)
	assert.Equal(t, "normalized", events[0].Encoder)
	assert.ErrorIs(t, events[0].Err, ErrUnrecognizedLabel)
	assert.Equal(t, "unknown", events[0].Raw)
	assert.Equal(t, "relative", events[1].Encoder)
	assert.Equal(t, "absolute", events[2].Encoder)
	assert.True(t, events[2].OK())
}

func TestClient_StopsAtFirstRecognizedLabel(t *testing.T) {
	srv, calls := classifier(t, http.StatusOK, `{"prediction":"down"}`)
	c := newTestClient(t, Config{
		Endpoint: srv.URL,
		Encoders: []Encoder{Normalized, Absolute},
	})

	got, ok := c.GetPredictedLabel(context.Background(), landmark.OpenPalm())

	assert.True(t, ok)
	assert.Equal(t, Down, got)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestClient_ReturnsLastErrorWhenAllFail(t *testing.T) {
	srv, calls := classifier(t, http.StatusBadGateway, `upstream down`)
	c := newTestClient(t, Config{
		Endpoint: srv.URL,
		Encoders: []Encoder{Normalized, Relative},
	})

	_, err := c.Predict(context.Background(), landmark.OpenPalm())

	assert.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "upstream down")
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, Config{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})

	_, err := c.Predict(context.Background(), landmark.OpenPalm())

	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_CancelledContext(t *testing.T) {
	srv, calls := classifier(t, http.StatusOK, `{"prediction":"up"}`)
	c := newTestClient(t, Config{
		Endpoint: srv.URL,
		Encoders: []Encoder{Normalized, Relative, Absolute},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, ok := c.GetPredictedLabel(ctx, landmark.OpenPalm())

	assert.False(t, ok)
	assert.Equal(t, LabelNone, got)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestClient_ConcurrentCalls(t *testing.T) {
	srv, calls := classifier(t, http.StatusOK, `{"prediction":"Right"}`)
	c := newTestClient(t, Config{Endpoint: srv.URL})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, ok := c.GetPredictedLabel(context.Background(), landmark.OpenPalm())
			assert.True(t, ok)
			assert.Equal(t, Right, got)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(16), atomic.LoadInt32(calls))
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := newTestClient(t, Config{})

		assert.Equal(t, DefaultEndpoint, c.Endpoint())
		require.Len(t, c.encoders, 1)
		assert.Equal(t, "normalized", c.encoders[0].Name)
	})

	t.Run("rejects non-http endpoints", func(t *testing.T) {
		for _, endpoint := range []string{"ftp://example.com/predict", "example.com/predict", "://bad"} {
			_, err := New(Config{Endpoint: endpoint})
			assert.Error(t, err, endpoint)
		}
	})
}
