package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/helpy/paths"
	"github.com/psds-microservice/support-relay/api"
	"github.com/psds-microservice/support-relay/internal/handler"
	"github.com/psds-microservice/support-relay/internal/service"
	"github.com/psds-microservice/support-relay/internal/store/storetest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewTicketService(storetest.New(t), nil, zerolog.Nop())
	r := New(handler.NewTicketHandler(svc), func(context.Context) error { return nil })

	get := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w
	}

	assert.Equal(t, http.StatusOK, get(paths.PathHealth).Code)
	assert.Equal(t, http.StatusOK, get(paths.PathReady).Code)
	assert.Equal(t, http.StatusOK, get("/api/v1/tickets").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/v1/tickets/1").Code)
	assert.Equal(t, http.StatusFound, get(paths.PathSwagger).Code)

	w := get(paths.PathSwagger + "/openapi.json")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(api.OpenAPISpec), w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/tickets", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
