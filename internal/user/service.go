package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/tasktracker/internal"
	userDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/user"
	"github.com/frahmantamala/tasktracker/internal/core/phone"
	"golang.org/x/crypto/bcrypt"
)

// Repository is the user storage. Lookups return nil, nil when nothing
// matches.
type Repository interface {
	Create(ctx context.Context, user *userDatamodel.User) error
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	PhoneExists(ctx context.Context, canonical string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	AddDeviceToken(ctx context.Context, token *userDatamodel.DeviceToken) error
	ListDeviceTokens(ctx context.Context, userID int64) ([]*userDatamodel.DeviceToken, error)
}

// PermissionResolver computes the union of a user's group permissions.
type PermissionResolver interface {
	ResolvePermissions(ctx context.Context, username string) ([]string, error)
}

type Config struct {
	DefaultCountryCode string
	BCryptCost         int
}

type Service struct {
	repo     Repository
	resolver PermissionResolver
	cfg      Config
	logger   *slog.Logger
}

func NewService(repo Repository, resolver PermissionResolver, cfg Config, logger *slog.Logger) *Service {
	if cfg.BCryptCost == 0 {
		cfg.BCryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:     repo,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
	}
}

var (
	errUsernameTaken = internal.NewConflictError("Username is already taken", internal.ErrCodeUsernameTaken)
	errPhoneTaken    = internal.NewConflictError("Phone number is already registered", internal.ErrCodePhoneTaken)
	errEmailTaken    = internal.NewConflictError("Email is already registered", internal.ErrCodeEmailTaken)
)

// Register creates an account. A phone number, when given, is stored both as
// given and in canonical form; the canonical form must be unique.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var canonical string
	if dto.Phone != "" {
		var err error
		canonical, err = phone.Normalize(dto.Phone, s.cfg.DefaultCountryCode)
		if err != nil {
			return nil, err
		}
	}

	if err := s.checkUnique(ctx, dto.Username, canonical, dto.Email); err != nil {
		return nil, err
	}

	u := &userDatamodel.User{
		Username: dto.Username,
		Email:    dto.Email,
	}
	if canonical != "" {
		raw := dto.Phone
		u.Phone = &raw
		u.PhoneCanonical = &canonical
	}
	if dto.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*dto.Password), s.cfg.BCryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		h := string(hash)
		u.PasswordHash = &h
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// lost a race with a concurrent registration; report the
			// conflict the way the pre-check would have
			if err := s.checkUnique(ctx, dto.Username, canonical, dto.Email); err != nil {
				return nil, err
			}
			return nil, errUsernameTaken
		}
		s.logger.Error("failed to create user", "error", err, "username", dto.Username)
		return nil, internal.NewInternalError("failed to register user", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "username", u.Username)
	return FromDataModel(u), nil
}

func (s *Service) checkUnique(ctx context.Context, username, canonical string, email *string) error {
	taken, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return internal.NewInternalError("failed to check username", err)
	}
	if taken {
		return errUsernameTaken
	}

	if canonical != "" {
		taken, err = s.repo.PhoneExists(ctx, canonical)
		if err != nil {
			return internal.NewInternalError("failed to check phone", err)
		}
		if taken {
			return errPhoneTaken
		}
	}

	if email != nil {
		taken, err = s.repo.EmailExists(ctx, *email)
		if err != nil {
			return internal.NewInternalError("failed to check email", err)
		}
		if taken {
			return errEmailTaken
		}
	}
	return nil
}

// Me returns the caller's profile with resolved permissions.
func (s *Service) Me(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}

	perms, err := s.resolver.ResolvePermissions(ctx, u.Username)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve permissions", err)
	}

	return &Profile{User: *FromDataModel(u), Permissions: perms}, nil
}

func (s *Service) Permissions(ctx context.Context, username string) ([]string, error) {
	perms, err := s.resolver.ResolvePermissions(ctx, username)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve permissions", err)
	}
	return perms, nil
}

// RegisterDevice stores a push token for the user. Registering the same
// token again is a no-op.
func (s *Service) RegisterDevice(ctx context.Context, userID int64, dto DeviceTokenDTO) ([]DeviceToken, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.AddDeviceToken(ctx, &userDatamodel.DeviceToken{UserID: userID, Token: dto.Token}); err != nil {
		return nil, internal.NewInternalError("failed to register device", err)
	}

	rows, err := s.repo.ListDeviceTokens(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list devices", err)
	}
	tokens := make([]DeviceToken, 0, len(rows))
	for _, row := range rows {
		tokens = append(tokens, DeviceToken{Token: row.Token, CreatedAt: row.CreatedAt})
	}
	return tokens, nil
}
