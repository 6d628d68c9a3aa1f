package camunda

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"query-planner/internal/common/config"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"write: broken pipe", true},
		{"rpc error: code = PermissionDenied", false},
		{"rpc error: code = NotFound desc = job not found", false},
	}
	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(errors.New(tt.err)))
		})
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.CamundaConfig{BrokerAddress: "zeebe:26500", RequestTimeout: 1500})

	assert.Equal(t, "zeebe:26500", cfg.GatewayAddress)
	assert.True(t, cfg.UsePlaintextConnection)
	assert.Equal(t, int64(1500), cfg.RequestTimeout.Milliseconds())
	assert.Same(t, DefaultRetryConfig, cfg.RetryConfig)
}

func TestCamundaWorker_StopNil(t *testing.T) {
	var w *CamundaWorker
	assert.NotPanics(t, w.Stop)
}
