package utils

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/kataras/iris/v12/middleware/jwt"

	"github.com/gaspartrip/devcamper-api/models"
)

const (
	AccessTokenLifetime  = 24 * time.Hour
	RefreshTokenLifetime = 365 * 24 * time.Hour
)

// AccessToken is the claims payload attached to every authenticated request.
type AccessToken struct {
	ID   string `json:"id"` // user ObjectID hex
	Role string `json:"role"`
}

// CreateTokenPair signs an access/refresh pair for the user and allow-lists
// the refresh token in Redis for its lifetime.
func CreateTokenPair(ctx context.Context, rdb *redis.Client, user *models.User) (*jwt.TokenPair, error) {
	accessSigner := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), AccessTokenLifetime)
	refreshSigner := jwt.NewSigner(jwt.HS256, os.Getenv("REFRESH_TOKEN_SECRET"), RefreshTokenLifetime)

	accessToken, err := accessSigner.Sign(AccessToken{ID: user.ID.Hex(), Role: user.Role})
	if err != nil {
		return nil, err
	}

	refreshToken, err := refreshSigner.Sign(jwt.Claims{Subject: user.ID.Hex()})
	if err != nil {
		return nil, err
	}

	if err := rdb.Set(ctx, string(refreshToken), "true", RefreshTokenLifetime+5*time.Minute).Err(); err != nil {
		return nil, err
	}

	return &jwt.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// GenerateResetToken returns a random password-reset token and the sha256 hex
// digest that gets persisted on the user document.
func GenerateResetToken() (token string, hash string, err error) {
	b := make([]byte, 20)
	if _, err = rand.Read(b); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(b)
	return token, HashToken(token), nil
}

// HashToken digests a reset token the same way GenerateResetToken does.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
