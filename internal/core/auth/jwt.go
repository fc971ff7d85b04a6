package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims 令牌里只放身份与角色，下游所有鉴权都以它为准
type Claims struct {
	UserID  string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

type SigningKey struct {
	ID     string
	Secret []byte
}

// JWTer 用 Active 签发；Retired 仅用于校验轮换前签出的令牌
type JWTer struct {
	Active  SigningKey
	Retired []SigningKey
	Issuer  string
	TTL     time.Duration

	now func() time.Time
}

func NewJWTer(active SigningKey, retired []SigningKey, issuer string, ttl time.Duration) (*JWTer, error) {
	if active.ID == "" || len(active.Secret) == 0 {
		return nil, errors.New("jwt: active key needs id and secret")
	}
	if ttl <= 0 {
		return nil, errors.New("jwt: ttl must be positive")
	}
	return &JWTer{Active: active, Retired: retired, Issuer: issuer, TTL: ttl, now: time.Now}, nil
}

func (j *JWTer) clock() time.Time {
	if j.now != nil {
		return j.now()
	}
	return time.Now()
}

func (j *JWTer) Issue(id, email string, isAdmin bool) (string, error) {
	now := j.clock()
	claims := Claims{
		UserID:  id,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = j.Active.ID
	return token.SignedString(j.Active.Secret)
}

func (j *JWTer) secretFor(kid string) ([]byte, bool) {
	if kid == j.Active.ID {
		return j.Active.Secret, true
	}
	for _, k := range j.Retired {
		if k.ID == kid {
			return k.Secret, true
		}
	}
	return nil, false
}

// Verify 校验签名、kid、issuer、exp；失败统一包成 ErrInvalidToken
func (j *JWTer) Verify(tokenStr string) (*Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrMissingToken
	}
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		secret, ok := j.secretFor(kid)
		if !ok {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
		jwt.WithTimeFunc(j.clock),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.UserID == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}
