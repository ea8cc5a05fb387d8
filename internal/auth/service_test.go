package auth_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/auth"
	authPostgres "github.com/frahmantamala/tasktracker/internal/auth/postgres"
	"github.com/frahmantamala/tasktracker/internal/core/database"
	groupDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/group"
	userDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/user"
	"github.com/frahmantamala/tasktracker/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type sentOTP struct {
	phone string
	code  string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentOTP
	err  error
}

func (s *recordingSender) SendOTP(ctx context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentOTP{phone: phone, code: code})
	return nil
}

func (s *recordingSender) last() sentOTP {
	s.mu.Lock()
	defer s.mu.Unlock()
	Expect(s.sent).NotTo(BeEmpty())
	return s.sent[len(s.sent)-1]
}

type recordingNotifier struct {
	mu     sync.Mutex
	phones []string
	err    error
}

func (n *recordingNotifier) SendLoginNotice(ctx context.Context, phone string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.phones = append(n.phones, phone)
	return n.err
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.phones...)
}

func strPtr(s string) *string { return &s }

func seedUser(db *gorm.DB, username, password, canonicalPhone string) *userDatamodel.User {
	u := &userDatamodel.User{Username: username}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		u.PasswordHash = strPtr(string(hash))
	}
	if canonicalPhone != "" {
		u.Phone = strPtr(canonicalPhone)
		u.PhoneCanonical = strPtr(canonicalPhone)
	}
	Expect(db.Create(u).Error).To(Succeed())
	return u
}

func expectAppError(err error, errType internal.ErrorType, code internal.ErrorCode) {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	Expect(appErr.Type).To(Equal(errType))
	Expect(appErr.Code).To(Equal(code))
}

var _ = Describe("Auth Service", func() {
	var (
		ctx      context.Context
		db       *gorm.DB
		sender   *recordingSender
		otpStore *auth.OTPStore
		tokenGen *auth.JWTTokenGenerator
		service  *auth.Service
		alice    *userDatamodel.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		gdb, sx, err := database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		db = gdb

		sender = &recordingSender{}
		otpStore = auth.NewOTPStore(auth.OTPStoreConfig{TTL: time.Minute}, logger.Discard())
		tokenGen = auth.NewJWTTokenGenerator("access-secret-for-tests-0123456789", "refresh-secret-for-tests-0123456789", 15*time.Minute, time.Hour)
		service = auth.NewService(authPostgres.NewRepository(sx), tokenGen, otpStore, sender, "+49", logger.Discard())

		alice = seedUser(db, "alice", "correct horse", "+491701000001")
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	Describe("Authenticate", func() {
		It("returns distinct access and refresh tokens for valid credentials", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{Username: "alice", Password: "correct horse"})
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
			Expect(tokens.RefreshToken).NotTo(BeEmpty())
			Expect(tokens.AccessToken).NotTo(Equal(tokens.RefreshToken))

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal(alice.ID))
			Expect(claims.Username).To(Equal("alice"))
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{Username: "alice", Password: "battery staple"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("rejects an unknown username with the same error", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{Username: "mallory", Password: "correct horse"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("rejects password login for users without a password", func() {
			seedUser(db, "bob", "", "+491701000002")
			_, err := service.Authenticate(ctx, auth.LoginDTO{Username: "bob", Password: "anything"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("validates required fields", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{Username: "alice"})
			expectAppError(err, internal.ErrorTypeValidation, internal.ErrCodeValidationFailed)
		})
	})

	Describe("one-time codes", func() {
		It("sends a code to the canonical number and logs in with it", func() {
			Expect(service.RequestOTP(ctx, auth.OTPRequestDTO{Phone: "0170 1000001"})).To(Succeed())

			sent := sender.last()
			Expect(sent.phone).To(Equal("+491701000001"))

			tokens, err := service.VerifyOTP(ctx, auth.OTPVerifyDTO{Phone: "+49 170 1000001", Code: sent.code})
			Expect(err).NotTo(HaveOccurred())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal(alice.ID))

			var stored userDatamodel.User
			Expect(db.First(&stored, alice.ID).Error).To(Succeed())
			Expect(stored.PhoneVerified).To(BeTrue())
		})

		It("accepts requests for unknown numbers without sending anything", func() {
			Expect(service.RequestOTP(ctx, auth.OTPRequestDTO{Phone: "+491709999999"})).To(Succeed())
			Expect(sender.sent).To(BeEmpty())
			Expect(otpStore.Pending()).To(Equal(0))
		})

		It("rejects malformed numbers", func() {
			err := service.RequestOTP(ctx, auth.OTPRequestDTO{Phone: "12"})
			expectAppError(err, internal.ErrorTypeValidation, internal.ErrCodeValidationFailed)
		})

		It("rejects a code that was never issued", func() {
			_, err := service.VerifyOTP(ctx, auth.OTPVerifyDTO{Phone: "+491701000001", Code: "123456"})
			Expect(err).To(MatchError(auth.ErrInvalidOTP))
		})

		It("surfaces delivery failures as internal errors", func() {
			sender.err = errors.New("gateway down")
			err := service.RequestOTP(ctx, auth.OTPRequestDTO{Phone: "+491701000001"})
			expectAppError(err, internal.ErrorTypeInternal, internal.ErrorCode("INTERNAL_ERROR"))
		})
	})

	Describe("login notices", func() {
		var notifier *recordingNotifier

		BeforeEach(func() {
			notifier = &recordingNotifier{}
		})

		It("stays quiet unless enabled", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{Username: "alice", Password: "correct horse"})
			Expect(err).NotTo(HaveOccurred())
			Expect(notifier.sent()).To(BeEmpty())
		})

		It("texts the account phone after a password or passcode login", func() {
			service.NotifyLogins(notifier)

			_, err := service.Authenticate(ctx, auth.LoginDTO{Username: "alice", Password: "correct horse"})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.RequestOTP(ctx, auth.OTPRequestDTO{Phone: "+491701000001"})).To(Succeed())
			_, err = service.VerifyOTP(ctx, auth.OTPVerifyDTO{Phone: "+491701000001", Code: sender.last().code})
			Expect(err).NotTo(HaveOccurred())

			Expect(notifier.sent()).To(Equal([]string{"+491701000001", "+491701000001"}))
		})

		It("skips users without a phone and ignores gateway failures", func() {
			service.NotifyLogins(notifier)
			seedUser(db, "bob", "battery staple", "")

			_, err := service.Authenticate(ctx, auth.LoginDTO{Username: "bob", Password: "battery staple"})
			Expect(err).NotTo(HaveOccurred())
			Expect(notifier.sent()).To(BeEmpty())

			notifier.err = errors.New("gateway down")
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{Username: "alice", Password: "correct horse"})
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
		})

		It("does not text on a failed login", func() {
			service.NotifyLogins(notifier)
			_, err := service.Authenticate(ctx, auth.LoginDTO{Username: "alice", Password: "wrong password"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
			Expect(notifier.sent()).To(BeEmpty())
		})
	})

	Describe("RefreshTokens", func() {
		It("issues a new pair for a valid refresh token", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{Username: "alice", Password: "correct horse"})
			Expect(err).NotTo(HaveOccurred())

			refreshed, err := service.RefreshTokens(ctx, tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(refreshed.AccessToken).NotTo(BeEmpty())
		})

		It("does not accept an access token as a refresh token", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{Username: "alice", Password: "correct horse"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RefreshTokens(ctx, tokens.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("reports expired tokens distinctly", func() {
			expired := auth.NewJWTTokenGenerator("access-secret-for-tests-0123456789", "refresh-secret-for-tests-0123456789", -time.Minute, -time.Minute)
			token, err := expired.GenerateRefreshToken(alice.ID, "alice")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RefreshTokens(ctx, token)
			Expect(err).To(MatchError(internal.ErrTokenExpired))
		})

		It("rejects tokens for users that no longer exist", func() {
			token, err := tokenGen.GenerateRefreshToken(9999, "ghost")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RefreshTokens(ctx, token)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})
	})

	Describe("GetUserWithPermissions", func() {
		It("returns an empty permission set without memberships", func() {
			u, err := service.GetUserWithPermissions(ctx, alice.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Permissions).To(BeEmpty())
			Expect(u.Permissions).NotTo(BeNil())
		})

		It("unions permissions across every group", func() {
			perms := []*groupDatamodel.Permission{{Name: "manage_projects"}, {Name: "export_data"}}
			for _, p := range perms {
				Expect(db.Create(p).Error).To(Succeed())
			}
			for i, p := range perms {
				g := &groupDatamodel.Group{Name: "group-" + p.Name, CreatedBy: "alice"}
				Expect(db.Create(g).Error).To(Succeed())
				role := groupDatamodel.RoleUser
				if i == 0 {
					role = groupDatamodel.RoleAdmin
				}
				Expect(db.Create(&groupDatamodel.Membership{UserID: alice.ID, GroupID: g.ID, Role: role}).Error).To(Succeed())
				Expect(db.Create(&groupDatamodel.GroupPermission{GroupID: g.ID, PermissionID: p.ID}).Error).To(Succeed())
			}

			u, err := service.GetUserWithPermissions(ctx, alice.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Permissions).To(ConsistOf("manage_projects", "export_data"))
			Expect(u.HasPermission("export_data")).To(BeTrue())
			Expect(u.HasPermission("manage_sops")).To(BeFalse())
		})

		It("treats a vanished user as unauthenticated", func() {
			_, err := service.GetUserWithPermissions(ctx, 9999)
			Expect(err).To(MatchError(internal.ErrNotAuthenticated))
		})
	})
})
