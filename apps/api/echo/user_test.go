package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somahq/soma/core/user"
)

func TestUserAPI_registerActivateLogin(t *testing.T) {
	fix := setup(t)

	// register
	rec := doRequest(t, fix, http.MethodPost, "/api/v1/register", echo.Map{
		"name":     "Aminata Diallo",
		"email":    "aminata@test.soma",
		"password": "Secret123!",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["message"], "aminata@test.soma")
	token, _ := body["activation_token"].(string)
	require.NotEmpty(t, token)

	// the confirmation code only travels by email; recover it from the token
	_, code, err := fix.tokens.VerifyActivation(token)
	require.NoError(t, err)
	require.Len(t, fix.mailSvc.SentMessages(), 1)

	// wrong code: rejected and nothing persisted
	rec = doRequest(t, fix, http.MethodPost, "/api/v1/activate-user", echo.Map{
		"activation_token": token,
		"activation_code":  "0000",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, err = fix.usrRepo.GetUserByEmail(context.Background(), "aminata@test.soma")
	assert.Equal(t, user.ErrNotFound, err)

	// correct code
	rec = doRequest(t, fix, http.MethodPost, "/api/v1/activate-user", echo.Map{
		"activation_token": token,
		"activation_code":  code,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	usr, _ := decodeBody(t, rec)["user"].(map[string]interface{})
	require.NotNil(t, usr)
	assert.Equal(t, "user", usr["role"])
	assert.Equal(t, true, usr["is_verified"])

	// login sets both cookies
	rec = doRequest(t, fix, http.MethodPost, "/api/v1/login-user", echo.Map{
		"email":    "aminata@test.soma",
		"password": "Secret123!",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	access := responseCookie(rec, "access_token")
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	require.NotNil(t, responseCookie(rec, "refresh_token"))

	// bad password
	rec = doRequest(t, fix, http.MethodPost, "/api/v1/login-user", echo.Map{
		"email":    "aminata@test.soma",
		"password": "nope-nope",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// the cookie authenticates /me
	rec = doRequest(t, fix, http.MethodGet, "/api/v1/me", nil, access.Value)
	require.Equal(t, http.StatusOK, rec.Code)
	me, _ := decodeBody(t, rec)["user"].(map[string]interface{})
	require.NotNil(t, me)
	assert.Equal(t, "aminata@test.soma", me["email"])

	// logout clears the cookies and kills the session
	rec = doRequest(t, fix, http.MethodGet, "/api/v1/logout", nil, access.Value)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := responseCookie(rec, "access_token")
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	rec = doRequest(t, fix, http.MethodGet, "/api/v1/me", nil, access.Value)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "please login to access this resource", decodeBody(t, rec)["message"])
}

func TestUserAPI_register_invalidPayload(t *testing.T) {
	fix := setup(t)

	tests := []httpTest{
		{
			name:     "missing email",
			method:   http.MethodPost,
			path:     "/api/v1/register",
			body:     echo.Map{"name": "A", "password": "Secret123!"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad email",
			method:   http.MethodPost,
			path:     "/api/v1/register",
			body:     echo.Map{"name": "A", "email": "not-an-email", "password": "Secret123!"},
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.run(t, fix)
			assert.Equal(t, false, decodeBody(t, rec)["success"])
		})
	}
}

func TestUserAPI_socialAuth(t *testing.T) {
	fix := setup(t)

	payload := echo.Map{
		"name":   "Aminata Diallo",
		"email":  "aminata@test.soma",
		"avatar": "https://cdn.test/avatar.png",
	}

	rec := doRequest(t, fix, http.MethodPost, "/api/v1/social-auth", payload, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, responseCookie(rec, "access_token"))

	// second call logs into the same account
	rec = doRequest(t, fix, http.MethodPost, "/api/v1/social-auth", payload, "")
	require.Equal(t, http.StatusOK, rec.Code)

	users, err := fix.usrRepo.QueryAllUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserAPI_admin(t *testing.T) {
	fix := setup(t)

	adm := createUser(t, fix, "Root", "root@test.soma", "Secret123!", user.RoleAdmin)
	admPair := loginUser(t, fix, adm)
	usr := createUser(t, fix, "Aminata", "aminata@test.soma", "Secret123!", user.RoleUser)

	t.Run("update role", func(t *testing.T) {
		rec := doRequest(t, fix, http.MethodPut, "/api/v1/update-user-role", echo.Map{
			"id":   usr.ID,
			"role": "admin",
		}, admPair.Access)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got, err := fix.usrRepo.GetUserByID(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.Equal(t, user.RoleAdmin, got.Role)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		rec := doRequest(t, fix, http.MethodPut, "/api/v1/update-user-role", echo.Map{
			"id":   usr.ID,
			"role": "superuser",
		}, admPair.Access)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("self-delete is blocked", func(t *testing.T) {
		rec := doRequest(t, fix, http.MethodDelete, "/api/v1/delete-user-by-admin/"+adm.ID, nil, admPair.Access)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "you cannot delete your own account", decodeBody(t, rec)["message"])
	})

	t.Run("delete other user", func(t *testing.T) {
		rec := doRequest(t, fix, http.MethodDelete, "/api/v1/delete-user-by-admin/"+usr.ID, nil, admPair.Access)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		_, err := fix.usrRepo.GetUserByID(context.Background(), usr.ID)
		assert.Equal(t, user.ErrNotFound, err)
	})
}
