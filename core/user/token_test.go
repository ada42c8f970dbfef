package user

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somahq/soma/core"
)

func testConfig() *core.Config {
	return &core.Config{
		AppName: "Soma",
		Auth: core.AuthConfig{
			AccessTokenSecret:              "access-test-secret",
			RefreshTokenSecret:             "refresh-test-secret",
			ActivationTokenSecret:          "activation-test-secret",
			AccessTokenExpirationDelta:     5 * time.Minute,
			RefreshTokenExpirationDelta:    3 * 24 * time.Hour,
			ActivationTokenExpirationDelta: 5 * time.Minute,
		},
	}
}

func Test_TokenIssuer_IssuePair(t *testing.T) {
	issuer := NewTokenIssuer(testConfig())
	usr := User{ID: "usr-1"}

	pair, err := issuer.IssuePair(usr)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	id, err := issuer.VerifyAccess(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, id)

	id, err = issuer.VerifyRefresh(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, id)

	// tokens are not interchangeable across kinds
	_, err = issuer.VerifyAccess(pair.Refresh)
	assert.Equal(t, ErrInvalidToken, err)
	_, err = issuer.VerifyRefresh(pair.Access)
	assert.Equal(t, ErrInvalidToken, err)
}

func Test_TokenIssuer_expiry(t *testing.T) {
	defer func() { nowFunc = time.Now }()

	issuer := NewTokenIssuer(testConfig())
	pair, err := issuer.IssuePair(User{ID: "usr-1"})
	require.NoError(t, err)

	// access expires after 5m, refresh survives
	nowFunc = func() time.Time { return time.Now().Add(10 * time.Minute) }
	_, err = issuer.VerifyAccess(pair.Access)
	assert.Equal(t, ErrTokenExpired, err)
	_, err = issuer.VerifyRefresh(pair.Refresh)
	assert.NoError(t, err)

	// refresh expires after 3d
	nowFunc = func() time.Time { return time.Now().Add(4 * 24 * time.Hour) }
	_, err = issuer.VerifyRefresh(pair.Refresh)
	assert.Equal(t, ErrTokenExpired, err)
}

func Test_TokenIssuer_tampered(t *testing.T) {
	issuer := NewTokenIssuer(testConfig())
	pair, err := issuer.IssuePair(User{ID: "usr-1"})
	require.NoError(t, err)

	_, err = issuer.VerifyAccess(pair.Access + "x")
	assert.Equal(t, ErrInvalidToken, err)
	_, err = issuer.VerifyAccess("not-a-token")
	assert.Equal(t, ErrInvalidToken, err)
}

func Test_TokenIssuer_activation(t *testing.T) {
	issuer := NewTokenIssuer(testConfig())
	pending := PendingRegistration{
		Name:         "Jane Doe",
		Email:        "jane@test.cd",
		PasswordHash: []byte("$2a$10$fakehash"),
	}

	activation, err := issuer.IssueActivation(pending)
	require.NoError(t, err)
	require.NotEmpty(t, activation.Token)

	// code is 4 digits, 1000-9999
	require.Len(t, activation.Code, 4)
	n, err := strconv.Atoi(activation.Code)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1000)
	assert.LessOrEqual(t, n, 9999)

	got, code, err := issuer.VerifyActivation(activation.Token)
	require.NoError(t, err)
	assert.Equal(t, pending, got)
	assert.Equal(t, activation.Code, code)
}

func Test_TokenIssuer_activationExpiry(t *testing.T) {
	defer func() { nowFunc = time.Now }()

	issuer := NewTokenIssuer(testConfig())
	activation, err := issuer.IssueActivation(PendingRegistration{Email: "jane@test.cd"})
	require.NoError(t, err)

	nowFunc = func() time.Time { return time.Now().Add(6 * time.Minute) }
	_, _, err = issuer.VerifyActivation(activation.Token)
	assert.Equal(t, ErrTokenExpired, err)
}
