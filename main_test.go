package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SaeedKolahi/language-learners-manager/controllers"
	"github.com/SaeedKolahi/language-learners-manager/middleware"
	"github.com/gin-gonic/gin"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.Recovery())
	router.GET("/api/health", controllers.Health)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware([]byte("test-secret")))
	protected.GET("/learners", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})
	return router
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter()

	req, err := http.NewRequest("GET", "/api/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	if body := rr.Body.String(); !strings.Contains(body, `"status":"ok"`) {
		t.Errorf("handler returned unexpected body: %v", body)
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	router := newTestRouter()

	req, err := http.NewRequest("GET", "/api/learners", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusUnauthorized)
	}
}

func TestProtectedRouteRejectsGarbageToken(t *testing.T) {
	router := newTestRouter()

	req, err := http.NewRequest("GET", "/api/learners", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer not-a-token")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusUnauthorized)
	}
}
