package user

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
)

var (
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("expired token")

	// mocked in tests
	nowFunc = time.Now
)

// resetClaims are the claims encoded in a password-reset token. Fingerprint is
// derived from the current password hash so that a token dies as soon as the
// password changes.
type resetClaims struct {
	jwt.StandardClaims
	Fingerprint string `json:"fpt"`
}

func passwordFingerprint(usr User) string {
	sum := sha256.Sum256(usr.PasswordHash)
	return hex.EncodeToString(sum[:8])
}

func makeResetToken(usr User, conf *core.Config) (string, error) {
	now := nowFunc().UTC()
	claims := resetClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   usr.Email,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(conf.PasswordResetTimeout).Unix(),
		},
		Fingerprint: passwordFingerprint(usr),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(conf.SecretKey))
}

// resetTokenEmail extracts the subject email without verifying the signature,
// so the owning user can be looked up first.
func resetTokenEmail(token string) (string, error) {
	claims := new(resetClaims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return "", errInvalidToken
	}
	if claims.Subject == "" {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}

func verifyResetToken(usr User, token string, conf *core.Config) error {
	claims := new(resetClaims)
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		if vErr, ok := err.(*jwt.ValidationError); ok && (vErr.Errors&jwt.ValidationErrorExpired != 0) {
			return errTokenExpired
		}
		return errInvalidToken
	}
	if claims.Subject != usr.Email || claims.Fingerprint != passwordFingerprint(usr) {
		return errInvalidToken
	}
	return nil
}
