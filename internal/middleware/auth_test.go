package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/canopyhq/canopy/internal/utils"
	"github.com/gin-gonic/gin"
)

func authRouter() *gin.Engine {
	router := gin.New()
	router.Use(AuthRequired())
	router.GET("/api/jobs", func(c *gin.Context) {
		c.JSON(200, gin.H{"account_id": GetAccountID(c)})
	})
	return router
}

func TestAuthRequired_MissingHeader(t *testing.T) {
	router := authRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/jobs", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, expected %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthRequired_MalformedHeader(t *testing.T) {
	router := authRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/jobs", nil)
	req.Header.Set("Authorization", "Token abc123")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, expected %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthRequired_InvalidToken(t *testing.T) {
	utils.SetJWTSecret("test-secret")
	router := authRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, expected %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthRequired_ValidToken(t *testing.T) {
	utils.SetJWTSecret("test-secret")

	token, err := utils.GenerateToken(42, "user@example.com", 1)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	router := authRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected %d", w.Code, http.StatusOK)
	}
	if body := w.Body.String(); body != `{"account_id":42}` {
		t.Errorf("body = %s, expected the account id from the token", body)
	}
}
