package user

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/somahq/soma/core"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	nowFunc = time.Now // mockable
)

type (
	// Claims are the authorization claims carried by access and refresh tokens.
	// Validity of a token is signature + expiry only; whether the holder is
	// still logged in is decided by the session store.
	Claims struct {
		jwt.RegisteredClaims
	}

	// PendingRegistration is a not-yet-persisted registration carried inside
	// an activation token. The password is stored hashed; the plaintext never
	// leaves the registration request.
	PendingRegistration struct {
		Name         string `json:"name"`
		Email        string `json:"email"`
		PasswordHash []byte `json:"password_hash"`
	}

	activationClaims struct {
		jwt.RegisteredClaims
		User PendingRegistration `json:"user"`
		Code string              `json:"activation_code"`
	}

	TokenPair struct {
		Access  string `json:"access_token"`
		Refresh string `json:"refresh_token"`
	}

	ActivationToken struct {
		Token string
		Code  string
	}

	// TokenIssuer mints and verifies the three token kinds, each signed with
	// its own secret and expiry from config.
	TokenIssuer struct {
		conf *core.Config
	}
)

func NewTokenIssuer(conf *core.Config) *TokenIssuer {
	return &TokenIssuer{conf: conf}
}

func (ti *TokenIssuer) sign(claims jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secret))
	return ss, errors.Wrap(err, "signing token")
}

func (ti *TokenIssuer) newClaims(subject string, ttl time.Duration) Claims {
	now := nowFunc()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.conf.AppName,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// IssuePair mints a fresh access+refresh token pair for the user.
func (ti *TokenIssuer) IssuePair(usr User) (TokenPair, error) {
	access, err := ti.sign(ti.newClaims(usr.ID, ti.conf.Auth.AccessTokenExpirationDelta), ti.conf.Auth.AccessTokenSecret)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := ti.sign(ti.newClaims(usr.ID, ti.conf.Auth.RefreshTokenExpirationDelta), ti.conf.Auth.RefreshTokenSecret)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (ti *TokenIssuer) verify(tokenStr, secret string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(nowFunc))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// VerifyAccess checks an access token and returns its subject (the user ID).
func (ti *TokenIssuer) VerifyAccess(token string) (string, error) {
	claims := new(Claims)
	if err := ti.verify(token, ti.conf.Auth.AccessTokenSecret, claims); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// VerifyRefresh checks a refresh token and returns its subject (the user ID).
func (ti *TokenIssuer) VerifyRefresh(token string) (string, error) {
	claims := new(Claims)
	if err := ti.verify(token, ti.conf.Auth.RefreshTokenSecret, claims); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IssueActivation mints a short-lived token carrying the pending registration
// together with a 4-digit confirmation code the user must enter.
func (ti *TokenIssuer) IssueActivation(pending PendingRegistration) (ActivationToken, error) {
	code, err := activationCode()
	if err != nil {
		return ActivationToken{}, err
	}

	now := nowFunc()
	claims := activationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.conf.AppName,
			Subject:   pending.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.conf.Auth.ActivationTokenExpirationDelta)),
		},
		User: pending,
		Code: code,
	}
	token, err := ti.sign(claims, ti.conf.Auth.ActivationTokenSecret)
	if err != nil {
		return ActivationToken{}, err
	}
	return ActivationToken{Token: token, Code: code}, nil
}

// VerifyActivation checks an activation token and returns the pending
// registration and the expected confirmation code.
func (ti *TokenIssuer) VerifyActivation(token string) (PendingRegistration, string, error) {
	claims := new(activationClaims)
	if err := ti.verify(token, ti.conf.Auth.ActivationTokenSecret, claims); err != nil {
		return PendingRegistration{}, "", err
	}
	return claims.User, claims.Code, nil
}

func activationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", errors.Wrap(err, "generating activation code")
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}
