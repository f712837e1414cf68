package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkrupp/underwritepro/internal/infra/logging"
)

func TestAccessLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		status int
		want   logging.Level
	}{
		{"/", http.StatusOK, logging.LevelInfo},
		{"/healthz", http.StatusOK, logging.LevelDebug},
		{"/metrics", http.StatusOK, logging.LevelDebug},
		{"/healthz", http.StatusServiceUnavailable, logging.LevelError},
		{"/assets/app.js", http.StatusNotFound, logging.LevelWarn},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, accessLevel(tt.path, tt.status), "%s %d", tt.path, tt.status)
	}
}
