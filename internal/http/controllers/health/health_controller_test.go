package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/somahq/soma/internal/http/dto/health"
)

type fixedService struct{ resp dto.HealthResponse }

func (f fixedService) Check(context.Context) dto.HealthResponse { return f.resp }

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		c := NewHealthController(fixedService{dto.HealthResponse{Status: "ready", Version: "1.2.3"}})
		w := httptest.NewRecorder()
		c.Readyz(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1.2.3", w.Header().Get("X-Service-Version"))
	})

	t.Run("unavailable", func(t *testing.T) {
		c := NewHealthController(fixedService{dto.HealthResponse{
			Status:     "unavailable",
			Components: map[string]dto.HealthStatus{"store_postgres": {Status: "error", Message: "unavailable"}},
		}})
		w := httptest.NewRecorder()
		c.Readyz(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "SERVICE_UNAVAILABLE", body["code"])
		assert.NotContains(t, w.Body.String(), "store_postgres")
	})
}
