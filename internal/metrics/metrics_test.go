package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/products/:id", "200"))
	for _, p := range []string{"/api/products/1", "/api/products/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/products/:id", "200"))
	assert.Equal(t, before+2, after)
}

func TestRecorders(t *testing.T) {
	RecordReconciliation("login", false)
	assert.GreaterOrEqual(t, testutil.ToFloat64(reconciliations.WithLabelValues("login", "false")), 1.0)

	RecordCheckout("compensated")
	assert.GreaterOrEqual(t, testutil.ToFloat64(checkouts.WithLabelValues("compensated")), 1.0)

	RecordBackendCall("cart.lines", "ok", 0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(backendCalls.WithLabelValues("cart.lines", "ok")), 1.0)
}

func TestHandlerExposesRegistry(t *testing.T) {
	RecordCheckout("completed")
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "storefront_checkout_sagas_total")
}
