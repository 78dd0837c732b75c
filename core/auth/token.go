package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/noodle/core"
)

// Roles carried by a session. Exactly one per session; absence of the teacher
// and administrator flags on the account implies student.
const (
	RoleStudent       = "student"
	RoleTeacher       = "teacher"
	RoleAdministrator = "administrator"
)

var nowFunc = time.Now // mockable

// Session is the decoded, verified contents of a bearer token identifying the
// calling principal and role for one request.
type Session struct {
	ID       int
	Username string
	FullName string
	Role     string
	Expiry   time.Time
}

func (s Session) IsAdministrator() bool { return s.Role == RoleAdministrator }
func (s Session) IsTeacher() bool       { return s.Role == RoleTeacher }
func (s Session) IsStudent() bool       { return s.Role == RoleStudent }

// Claims is the token payload. It must round-trip through Issue/Verify unchanged.
type Claims struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"exp"`
}

var _ jwt.Claims = (*Claims)(nil)

func (c *Claims) Valid() error {
	if nowFunc().Unix() >= c.ExpiresAt {
		return jwt.NewValidationError("token expired", jwt.ValidationErrorExpired)
	}
	return nil
}

func (c *Claims) Session() Session {
	return Session{
		ID:       c.ID,
		Username: c.Username,
		FullName: c.FullName,
		Role:     c.Role,
		Expiry:   time.Unix(c.ExpiresAt, 0),
	}
}

// TokenService issues and verifies signed, time-limited session tokens.
// The signing key is process-lifetime state injected at construction;
// it is never read from ambient globals.
type TokenService struct {
	signingKey      []byte
	expirationDelta time.Duration
}

func NewTokenService(signingKey []byte, expirationDelta time.Duration) *TokenService {
	return &TokenService{
		signingKey:      signingKey,
		expirationDelta: expirationDelta,
	}
}

// SigningKey exposes the key for the route-gating JWT middleware.
func (svc *TokenService) SigningKey() []byte { return svc.signingKey }

// Issue signs a token for the given principal. Pure function of its inputs,
// the clock and the signing key.
func (svc *TokenService) Issue(id int, username, fullName, role string) (string, error) {
	claims := &Claims{
		ID:        id,
		Username:  username,
		FullName:  fullName,
		Role:      role,
		ExpiresAt: nowFunc().Add(svc.expirationDelta).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(svc.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Verify validates signature and expiry and decodes the payload into a Session.
func (svc *TokenService) Verify(tokenStr string) (Session, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return svc.signingKey, nil
	})
	if err != nil || !token.Valid {
		return Session{}, core.ErrInvalidToken
	}
	return claims.Session(), nil
}
