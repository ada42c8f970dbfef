package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somahq/soma/core/user"
)

func TestSessionMiddleware(t *testing.T) {
	fix := setup(t)

	usr := createUser(t, fix, "Aminata", "aminata@test.soma", "Secret123!", user.RoleUser)
	pair := loginUser(t, fix, usr)

	// token valid but session wiped (logged out elsewhere)
	ghost := createUser(t, fix, "Ghost", "ghost@test.soma", "Secret123!", user.RoleUser)
	ghostPair := loginUser(t, fix, ghost)
	require.NoError(t, fix.sessions.Delete(context.Background(), ghost.ID))

	tests := []httpTest{
		{
			name:        "no cookie",
			method:      http.MethodGet,
			path:        "/api/v1/me",
			wantCode:    http.StatusBadRequest,
			wantMessage: "please login to access this resource",
		},
		{
			name:        "garbage token",
			method:      http.MethodGet,
			path:        "/api/v1/me",
			accessToken: "not-a-jwt",
			wantCode:    http.StatusBadRequest,
			wantMessage: "access token is not valid",
		},
		{
			name:        "refresh token is not an access token",
			method:      http.MethodGet,
			path:        "/api/v1/me",
			accessToken: pair.Refresh,
			wantCode:    http.StatusBadRequest,
			wantMessage: "access token is not valid",
		},
		{
			name:        "session gone",
			method:      http.MethodGet,
			path:        "/api/v1/me",
			accessToken: ghostPair.Access,
			wantCode:    http.StatusBadRequest,
			wantMessage: "please login to access this resource",
		},
		{
			name:        "ok",
			method:      http.MethodGet,
			path:        "/api/v1/me",
			accessToken: pair.Access,
			wantCode:    http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, fix)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	fix := setup(t)

	usr := createUser(t, fix, "Aminata", "aminata@test.soma", "Secret123!", user.RoleUser)
	pair := loginUser(t, fix, usr)

	adm := createUser(t, fix, "Root", "root@test.soma", "Secret123!", user.RoleAdmin)
	admPair := loginUser(t, fix, adm)

	tests := []httpTest{
		{
			name:        "plain user is rejected",
			method:      http.MethodGet,
			path:        "/api/v1/get-all-users",
			accessToken: pair.Access,
			wantCode:    http.StatusForbidden,
			wantMessage: "role user is not allowed to access this resource",
		},
		{
			name:        "admin passes",
			method:      http.MethodGet,
			path:        "/api/v1/get-all-users",
			accessToken: admPair.Access,
			wantCode:    http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, fix)
		})
	}
}

func TestRefreshToken(t *testing.T) {
	fix := setup(t)

	usr := createUser(t, fix, "Aminata", "aminata@test.soma", "Secret123!", user.RoleUser)
	pair := loginUser(t, fix, usr)

	t.Run("missing cookie", func(t *testing.T) {
		rec := doRequest(t, fix, http.MethodGet, "/api/v1/refreshtoken", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "could not refresh token", decodeBody(t, rec)["message"])
	})

	t.Run("tampered token", func(t *testing.T) {
		req := newRequest(t, http.MethodGet, "/api/v1/refreshtoken", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: pair.Refresh + "x"})
		rec := serve(fix, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "could not refresh token", decodeBody(t, rec)["message"])
	})

	t.Run("session gone", func(t *testing.T) {
		other := createUser(t, fix, "Ghost", "ghost@test.soma", "Secret123!", user.RoleUser)
		otherPair := loginUser(t, fix, other)
		require.NoError(t, fix.sessions.Delete(context.Background(), other.ID))

		req := newRequest(t, http.MethodGet, "/api/v1/refreshtoken", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: otherPair.Refresh})
		rec := serve(fix, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "could not refresh token", decodeBody(t, rec)["message"])
	})

	t.Run("ok", func(t *testing.T) {
		req := newRequest(t, http.MethodGet, "/api/v1/refreshtoken", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: pair.Refresh})
		rec := serve(fix, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.NotEmpty(t, body["access_token"])

		// both cookies are re-issued
		access := responseCookie(rec, "access_token")
		require.NotNil(t, access)
		assert.NotEmpty(t, access.Value)
		assert.True(t, access.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
		refresh := responseCookie(rec, "refresh_token")
		require.NotNil(t, refresh)
		assert.NotEmpty(t, refresh.Value)

		// the fresh access token is immediately usable
		rec = doRequest(t, fix, http.MethodGet, "/api/v1/me", nil, access.Value)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
