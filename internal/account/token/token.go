// Package token issues and validates the HS256 session tokens handed out at
// login.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/voltixaudit/voltix/internal/clock"
	"github.com/voltixaudit/voltix/internal/config"
	"go.uber.org/zap"
)

const issuer = "voltix"

var ErrInvalid = errors.New("invalid_token")

type claims struct {
	jwt.RegisteredClaims
	Plan string `json:"plan,omitempty"`
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
	leeway time.Duration
}

// NewIssuer builds the signer from AUTH_JWT_SECRET. Outside production an
// empty secret is replaced with a random one, which invalidates tokens on
// restart.
func NewIssuer(cfg config.Config, clk clock.Clock, log *zap.Logger) (*Issuer, error) {
	secret := strings.TrimSpace(cfg.AuthJWTSecret)
	if secret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("AUTH_JWT_SECRET is required in production")
		}
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		secret = hex.EncodeToString(buf)
		log.Warn("AUTH_JWT_SECRET not set, using an ephemeral signing key")
	}
	return NewStaticIssuer([]byte(secret), cfg.AuthTokenTTL, clk), nil
}

func NewStaticIssuer(secret []byte, ttl time.Duration, clk clock.Clock) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: secret, ttl: ttl, clock: clk, leeway: 30 * time.Second}
}

func (i *Issuer) Issue(userID snowflake.ID, plan string) (string, error) {
	now := i.clock.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Plan: plan,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates raw and returns the user id in its subject.
func (i *Issuer) Parse(raw string) (snowflake.ID, error) {
	parsed := &claims{}
	_, err := jwt.ParseWithClaims(raw, parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(i.leeway),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		return 0, ErrInvalid
	}

	id, err := snowflake.ParseString(parsed.Subject)
	if err != nil || id == 0 {
		return 0, ErrInvalid
	}
	return id, nil
}
