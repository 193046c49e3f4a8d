package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/requestdata"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func identityRouter(t *testing.T, captured **requestdata.RequestData) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	mw := NewIdentityMiddleware(log, testSecret)
	router := gin.New()
	router.GET("/protected", mw.RequireIdentity(), func(c *gin.Context) {
		*captured = requestdata.GetRequestData(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequireIdentityAcceptsValidToken(t *testing.T) {
	var captured *requestdata.RequestData
	router := identityRouter(t, &captured)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, userID.String()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if captured == nil {
		t.Fatalf("request data not set")
	}
	if captured.UserID != userID {
		t.Fatalf("user id: want=%s got=%s", userID, captured.UserID)
	}
}

func TestRequireIdentityRejectsMissingHeader(t *testing.T) {
	var captured *requestdata.RequestData
	router := identityRouter(t, &captured)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: want=401 got=%d", rec.Code)
	}
	if captured != nil {
		t.Fatalf("handler should not run without identity")
	}
}

func TestRequireIdentityRejectsWrongSecret(t *testing.T) {
	var captured *requestdata.RequestData
	router := identityRouter(t, &captured)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", uuid.NewString()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: want=401 got=%d", rec.Code)
	}
}

func TestRequireIdentityRejectsNonUUIDSubject(t *testing.T) {
	var captured *requestdata.RequestData
	router := identityRouter(t, &captured)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "not-a-uuid"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: want=401 got=%d", rec.Code)
	}
}

func TestRequireIdentityRejectsExpiredToken(t *testing.T) {
	var captured *requestdata.RequestData
	router := identityRouter(t, &captured)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: want=401 got=%d", rec.Code)
	}
}
