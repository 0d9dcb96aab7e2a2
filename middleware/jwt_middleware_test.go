package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTMiddleware(t *testing.T) {
	var gotUserID string
	protected := JWTMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		gotUserID = userID
		w.WriteHeader(http.StatusOK)
	}))

	validToken := signToken(t, jwt.MapClaims{
		"userID": "user-1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "valid token passes", authHeader: "Bearer " + validToken, wantStatus: http.StatusOK},
		{name: "missing header rejected", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "malformed header rejected", authHeader: "Token abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token rejected", authHeader: "Bearer not.a.token", wantStatus: http.StatusUnauthorized},
		{
			name: "wrong secret rejected",
			authHeader: "Bearer " + signToken(t, jwt.MapClaims{
				"userID": "user-1",
				"exp":    time.Now().Add(time.Hour).Unix(),
			}, "other-secret"),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired token rejected",
			authHeader: "Bearer " + signToken(t, jwt.MapClaims{
				"userID": "user-1",
				"exp":    time.Now().Add(-time.Hour).Unix(),
			}, testSecret),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "token without userID rejected",
			authHeader: "Bearer " + signToken(t, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}, testSecret),
			wantStatus: http.StatusUnauthorized,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotUserID = ""
			req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusOK {
				require.Equal(t, "user-1", gotUserID)
			}
		})
	}
}
