package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(issuer *TokenIssuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secure", RequireToken(issuer), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ActorKey))
	})
	return r
}

func TestIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.Issue("desk-1")
	require.NoError(t, err)

	subject, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "desk-1", subject)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	token, err := NewTokenIssuer("other", time.Hour).Issue("desk-1")
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := &TokenIssuer{secret: []byte("secret"), ttl: -time.Minute}
	expired, err := issuer.Issue("desk-1")
	require.NoError(t, err)

	_, err = issuer.Parse(expired)
	assert.Error(t, err)
}

func TestRequireToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	r := newRouter(issuer)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/secure", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := issuer.Issue("desk-1")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "desk-1", rec.Body.String())
}

func TestRequireTokenDisabled(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/secure", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
