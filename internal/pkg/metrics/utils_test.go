package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegister_Twice(t *testing.T) {
	assert.Nil(t, Register(NewCounter("test", "register_total", "Test counter.", "status")))
	c := NewCounter("test", "register_total", "Test counter.", "status")
	assert.Nil(t, Register(c))
	c.WithLabelValues("ok").Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(c.WithLabelValues("ok")))
}

func TestNewRequestDurations(t *testing.T) {
	h := NewRequestDurations("test")
	o, err := h.CurryWith(prometheus.Labels{"handler": "ping"})
	assert.Nil(t, err)
	assert.NotNil(t, o)
	_, err = h.CurryWith(prometheus.Labels{"olia": "ping"})
	assert.NotNil(t, err)
}
