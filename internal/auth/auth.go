package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/golang-jwt/jwt/v5"
)

// Credentials is what the repository knows about a user for login purposes.
// PasswordHash is nil for users that only log in with a one-time code.
type Credentials struct {
	UserID       int64   `db:"id"`
	Username     string  `db:"username"`
	PasswordHash *string `db:"password_hash"`
	Phone        *string `db:"phone_canonical"`
}

// TokenGenerator creates and validates signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID int64, username string) (string, error)
	GenerateRefreshToken(userID int64, username string) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// OTPSender delivers one-time codes out of band.
type OTPSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// LoginNotifier tells a user by SMS that their account was just signed in to.
type LoginNotifier interface {
	SendLoginNotice(ctx context.Context, phone string) error
}

// ServiceAPI is the surface the HTTP handler depends on.
type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RequestOTP(ctx context.Context, dto OTPRequestDTO) error
	VerifyOTP(ctx context.Context, dto OTPVerifyDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUserWithPermissions(ctx context.Context, userID int64) (*internal.User, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}
