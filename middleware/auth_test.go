package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flowclash/battle-system/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func validClaims(userID uuid.UUID, role models.UserRole) jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": userID.String(),
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()

	handler := Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, err := GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		assert.Equal(t, userID, gotID)

		gotRole, err := GetUserRoleFromContext(r.Context())
		require.NoError(t, err)
		assert.Equal(t, models.RoleJudge, gotRole)

		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/judge/assignments", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims(userID, models.RoleJudge)))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/judge/assignments", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong signing key is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/judge/assignments", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, []byte("other-secret"), validClaims(userID, models.RoleJudge)))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		claims := validClaims(userID, models.RoleJudge)
		claims["exp"] = time.Now().Add(-time.Minute).Unix()

		req := httptest.NewRequest(http.MethodGet, "/judge/assignments", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, claims))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthorize(t *testing.T) {
	userID := uuid.New()

	build := func(roles ...models.UserRole) http.Handler {
		return Authenticate(testSecret)(Authorize(roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))
	}

	t.Run("matching role is allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/roles/x", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims(userID, models.RoleAdmin)))
		rec := httptest.NewRecorder()

		build(models.RoleAdmin, models.RoleModerator).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other role is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/roles/x", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims(userID, models.RoleArtist)))
		rec := httptest.NewRecorder()

		build(models.RoleAdmin).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
