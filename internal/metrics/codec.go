package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/serroba/shortlinks/internal/shortener"
)

// CountingCodec wraps a shortener.TokenCodec and counts decode failures.
type CountingCodec struct {
	shortener.TokenCodec

	failures prometheus.Counter
}

// NewCountingCodec wraps codec so every failed Decode increments
// m.DecodeFailures.
func NewCountingCodec(codec shortener.TokenCodec, m *Metrics) *CountingCodec {
	return &CountingCodec{TokenCodec: codec, failures: m.DecodeFailures}
}

func (c *CountingCodec) Decode(token string) (int64, error) {
	id, err := c.TokenCodec.Decode(token)
	if err != nil {
		c.failures.Inc()
	}

	return id, err
}

var _ shortener.TokenCodec = (*CountingCodec)(nil)
