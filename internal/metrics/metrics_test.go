package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/serroba/shortlinks/internal/metrics"
	"github.com/serroba/shortlinks/internal/shortcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.RequestsTotal.WithLabelValues("GET", "/links", "200").Inc()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_request_total{method="GET",route="/links",status="200"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	a := metrics.New()
	b := metrics.New()

	a.DecodeFailures.Inc()

	assert.InDelta(t, 1, testutil.ToFloat64(a.DecodeFailures), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.DecodeFailures), 0)
}

func TestCountingCodec(t *testing.T) {
	codec, err := shortcode.New(shortcode.DefaultConfig("test-salt"))
	require.NoError(t, err)

	m := metrics.New()
	counting := metrics.NewCountingCodec(codec, m)

	token, err := counting.Encode(42)
	require.NoError(t, err)

	id, err := counting.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.InDelta(t, 0, testutil.ToFloat64(m.DecodeFailures), 0)

	_, err = counting.Decode(token + "x")
	assert.ErrorIs(t, err, shortcode.ErrNotDecodable)

	_, err = counting.Decode("")
	assert.Error(t, err)

	assert.InDelta(t, 2, testutil.ToFloat64(m.DecodeFailures), 0)
}
