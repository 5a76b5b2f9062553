package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword("s3cret", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken("k", "1", "admin@icp.local", "admin")
	require.NoError(t, err)

	claims, err := ValidateToken("k", tok)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	assert.True(t, claims.IsAdmin())
	assert.Equal(t, Issuer, claims.Issuer)

	_, err = ValidateToken("other", tok)
	assert.Error(t, err)
}

func TestValidateTokenRejects(t *testing.T) {
	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{"expired", sign(jwt.SigningMethodHS256, []byte("k"), Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: Issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}})},
		{"no expiry", sign(jwt.SigningMethodHS256, []byte("k"), Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer}})},
		{"other issuer", sign(jwt.SigningMethodHS256, []byte("k"), Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "someone-else", ExpiresAt: exp,
		}})},
		{"hs512", sign(jwt.SigningMethodHS512, []byte("k"), Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: Issuer, ExpiresAt: exp,
		}})},
		{"none alg", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: Issuer, ExpiresAt: exp,
		}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken("k", tt.token)
			assert.Error(t, err)
		})
	}
}

func TestMiddleware(t *testing.T) {
	var seen *Claims
	h := RequireAdmin("k")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFrom(r.Context())
	}))

	admin, err := GenerateToken("k", "1", "admin@icp.local", "admin")
	require.NoError(t, err)
	viewer, err := GenerateToken("k", "2", "v@icp.local", "viewer")
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing", "", http.StatusUnauthorized, "Unauthorized"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "Unauthorized"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "Unauthorized"},
		{"garbage", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
		{"not admin", "Bearer " + viewer, http.StatusForbidden, "Forbidden"},
		{"admin", "Bearer " + admin, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + admin, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "admin@icp.local", seen.Email)
			} else {
				assert.Nil(t, seen)
				assert.JSONEq(t, `{"success":false,"message":"`+tt.message+`"}`, rec.Body.String())
			}
		})
	}
}
