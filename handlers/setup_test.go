package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"polly-backend/auth"
	"polly-backend/models"
	"polly-backend/repository"
	"polly-backend/service"
	"polly-backend/testutil"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// tokenResolver maps fixed tokens to identities
type tokenResolver map[string]*models.Identity

func (r tokenResolver) Resolve(_ context.Context, token string) (*models.Identity, error) {
	identity, ok := r[token]
	if !ok {
		return nil, auth.ErrNoSession
	}
	return identity, nil
}

var testUsers = tokenResolver{
	"alice-token": {UserID: "alice", Email: "alice@example.com"},
	"bob-token":   {UserID: "bob", Email: "bob@example.com"},
}

// SetupTestEnvironment sets up the Gin router and in-memory SQLite database for testing.
func SetupTestEnvironment(t *testing.T) (*gin.Engine, *gorm.DB) {
	return setupWithLimiter(t, NewRateLimiter(false, 0, 0))
}

func setupWithLimiter(t *testing.T, limiter *RateLimiter) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	polls := service.NewPollService(repository.NewGormPollStore(db), nil)

	router := gin.New()
	api := router.Group("/api")
	api.Use(Authenticate(testUsers))
	{
		NewHealthHandler(db, nil, nil, limiter).RegisterRoutes(api)
		NewPollHandler(polls, "/login").RegisterRoutes(api, limiter.Middleware())
	}

	return router, db
}

// setupAuthEnvironment wires the real auth service for the auth routes
func setupAuthEnvironment(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	svc := auth.NewService(db, auth.NewMemorySessionStore(), time.Hour)

	router := gin.New()
	api := router.Group("/api")
	api.Use(Authenticate(svc))
	NewAuthHandler(svc).RegisterRoutes(api)
	return router
}

func performRequest(router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error body %q: %v", w.Body.String(), err)
	}
	return resp
}
