package checkout

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wodoame/smecs/internal/auth"
	"github.com/wodoame/smecs/internal/backend"
	"github.com/wodoame/smecs/internal/domain/cart"
	domain "github.com/wodoame/smecs/internal/domain/session"
	"github.com/wodoame/smecs/internal/logging"
)

func newRouter(saga *Orchestrator, device string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cartID := int64(8)
	r.Use(func(c *gin.Context) {
		c.Set(auth.CtxDeviceKey, device)
		c.Set(auth.CtxSessionKey, &domain.Session{UserID: 4, Token: "tok", CartID: &cartID})
	})
	NewHandler(saga, logging.Discard()).Register(r.Group("/api"))
	return r
}

func TestHandler_Checkout(t *testing.T) {
	be := newFakeBackend(cart.Line{ProductID: 1, UnitPrice: 2, Quantity: 3})
	saga := NewOrchestrator(be, logging.Discard())
	r := newRouter(saga, "dev")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/checkout", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Execution Execution `json:"execution"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, StatusCompleted, body.Execution.Status)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/checkout/"+body.Execution.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	newRouter(saga, "someone-else").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/checkout/"+body.Execution.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_CheckoutFailureCarriesExecution(t *testing.T) {
	be := newFakeBackend(cart.Line{ProductID: 1, UnitPrice: 2, Quantity: 3})
	be.linesErr = &backend.Error{Op: "order.lines.create", Status: 403, Kind: backend.ErrForbidden}
	r := newRouter(NewOrchestrator(be, logging.Discard()), "dev")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/checkout", nil))
	require.Equal(t, http.StatusForbidden, w.Code)

	var body struct {
		View      string    `json:"view"`
		Execution Execution `json:"execution"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "forbidden", body.View)
	assert.Equal(t, StatusCompensated, body.Execution.Status)
}

func TestHandler_CheckoutErrorViews(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		view   string
	}{
		{"401", &backend.Error{Op: "cart.lines", Status: 401, Kind: backend.ErrUnauthenticated}, http.StatusUnauthorized, "unauthorized"},
		{"403", &backend.Error{Op: "cart.lines", Status: 403, Kind: backend.ErrForbidden}, http.StatusForbidden, "forbidden"},
		{"other", &backend.Error{Op: "cart.lines", Kind: backend.ErrTransport}, http.StatusBadGateway, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := newFakeBackend()
			be.cartErr = tt.err
			r := newRouter(NewOrchestrator(be, logging.Discard()), "dev")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/checkout", nil))
			assert.Equal(t, tt.status, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.view, body["view"])
		})
	}
}

func TestHandler_EmptyCart(t *testing.T) {
	r := newRouter(NewOrchestrator(newFakeBackend(), logging.Discard()), "dev")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/checkout", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
