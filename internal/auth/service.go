package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/core/phone"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Repository is the read side of users and permissions needed for
// authentication. Lookups return nil, nil when nothing matches.
type Repository interface {
	GetCredentialsByUsername(ctx context.Context, username string) (*Credentials, error)
	GetCredentialsByPhone(ctx context.Context, canonicalPhone string) (*Credentials, error)
	GetUserByID(ctx context.Context, userID int64) (*internal.User, error)
	ResolvePermissions(ctx context.Context, username string) ([]string, error)
	MarkPhoneVerified(ctx context.Context, userID int64) error
}

// Service is the main auth service with dependencies
type Service struct {
	repo               Repository
	tokenGenerator     TokenGenerator
	otpStore           *OTPStore
	otpSender          OTPSender
	loginNotifier      LoginNotifier
	defaultCountryCode string
	logger             *slog.Logger
}

func NewService(repo Repository, tokenGen TokenGenerator, otpStore *OTPStore, otpSender OTPSender, defaultCountryCode string, logger *slog.Logger) *Service {
	return &Service{
		repo:               repo,
		tokenGenerator:     tokenGen,
		otpStore:           otpStore,
		otpSender:          otpSender,
		defaultCountryCode: defaultCountryCode,
		logger:             logger,
	}
}

// NotifyLogins enables an SMS notice after every successful sign-in of a
// user with a phone number. A nil notifier disables it.
func (s *Service) NotifyLogins(n LoginNotifier) {
	s.loginNotifier = n
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// Authenticate validates a username and password and returns tokens.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.repo.GetCredentialsByUsername(ctx, dto.Username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to load credentials", err)
	}
	if creds == nil || creds.PasswordHash == nil {
		s.logger.Warn("login rejected", "username", dto.Username, "reason", "unknown user or no password")
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*creds.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login rejected", "username", dto.Username, "reason", "password mismatch")
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	s.logger.Info("user logged in", "user_id", creds.UserID, "method", "password")
	s.sendLoginNotice(ctx, creds)
	return s.issueTokens(creds.UserID, creds.Username)
}

// RequestOTP sends a one-time code to the phone of a registered user.
// Unknown numbers are accepted silently so the endpoint does not reveal
// which numbers are registered.
func (s *Service) RequestOTP(ctx context.Context, dto OTPRequestDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	canonical, err := phone.Normalize(dto.Phone, s.defaultCountryCode)
	if err != nil {
		return err
	}

	creds, err := s.repo.GetCredentialsByPhone(ctx, canonical)
	if err != nil {
		return internal.NewInternalError("failed to look up phone", err)
	}
	if creds == nil {
		s.logger.Info("otp requested for unknown phone")
		return nil
	}

	code, err := s.otpStore.Issue(canonical)
	if err != nil {
		return err
	}

	if err := s.otpSender.SendOTP(ctx, canonical, code); err != nil {
		return internal.NewInternalError("failed to send one-time code", err)
	}

	s.logger.Info("otp issued", "user_id", creds.UserID)
	return nil
}

// VerifyOTP consumes a one-time code and returns tokens for its owner.
func (s *Service) VerifyOTP(ctx context.Context, dto OTPVerifyDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	canonical, err := phone.Normalize(dto.Phone, s.defaultCountryCode)
	if err != nil {
		return AuthTokens{}, err
	}

	if err := s.otpStore.Verify(canonical, dto.Code); err != nil {
		s.logger.Warn("otp verification failed", "error", err)
		return AuthTokens{}, err
	}

	creds, err := s.repo.GetCredentialsByPhone(ctx, canonical)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to look up phone", err)
	}
	if creds == nil {
		return AuthTokens{}, ErrInvalidOTP
	}

	if err := s.repo.MarkPhoneVerified(ctx, creds.UserID); err != nil {
		s.logger.Error("failed to mark phone verified", "user_id", creds.UserID, "error", err)
	}

	s.logger.Info("user logged in", "user_id", creds.UserID, "method", "otp")
	s.sendLoginNotice(ctx, creds)
	return s.issueTokens(creds.UserID, creds.Username)
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to load user", err)
	}
	if user == nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}

	return s.issueTokens(user.ID, user.Username)
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

// GetUserWithPermissions loads the caller and resolves the union of the
// permissions granted to every group they belong to.
func (s *Service) GetUserWithPermissions(ctx context.Context, userID int64) (*internal.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if user == nil {
		return nil, internal.ErrNotAuthenticated
	}

	perms, err := s.repo.ResolvePermissions(ctx, user.Username)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve permissions", err)
	}
	if perms == nil {
		perms = []string{}
	}
	user.Permissions = perms
	return user, nil
}

// sendLoginNotice never fails the login; gateway errors are only logged.
func (s *Service) sendLoginNotice(ctx context.Context, creds *Credentials) {
	if s.loginNotifier == nil || creds.Phone == nil {
		return
	}
	if err := s.loginNotifier.SendLoginNotice(ctx, *creds.Phone); err != nil {
		s.logger.Error("failed to send login notice", "user_id", creds.UserID, "error", err)
	}
}

func (s *Service) issueTokens(userID int64, username string) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(userID, username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(userID, username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(userID int64, username string) (string, error) {
	return j.sign(userID, username, j.AccessTokenTTL, j.AccessTokenSecret)
}

// GenerateRefreshToken creates a new refresh token
func (j *JWTTokenGenerator) GenerateRefreshToken(userID int64, username string) (string, error) {
	return j.sign(userID, username, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(userID int64, username string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(userID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) validate(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, internal.ErrInvalidToken
}
