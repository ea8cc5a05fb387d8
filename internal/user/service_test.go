package user_test

import (
	"context"
	"strings"

	"github.com/frahmantamala/tasktracker/internal"
	authPostgres "github.com/frahmantamala/tasktracker/internal/auth/postgres"
	"github.com/frahmantamala/tasktracker/internal/core/database"
	userDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/user"
	"github.com/frahmantamala/tasktracker/internal/user"
	userPostgres "github.com/frahmantamala/tasktracker/internal/user/postgres"
	"github.com/frahmantamala/tasktracker/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

var _ = Describe("User Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		service *user.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		gdb, sx, err := database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		db = gdb

		service = user.NewService(
			userPostgres.NewUserRepository(db),
			authPostgres.NewRepository(sx),
			user.Config{DefaultCountryCode: "+49", BCryptCost: bcrypt.MinCost},
			logger.Discard(),
		)
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	expectConflict := func(err error, code internal.ErrorCode) {
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeConflict))
		Expect(appErr.Code).To(Equal(code))
	}

	Describe("Register", func() {
		It("stores the canonical phone number", func() {
			u, err := service.Register(ctx, user.RegisterDTO{Username: "alice", Phone: "0151 234-5678"})
			Expect(err).NotTo(HaveOccurred())
			Expect(*u.Phone).To(Equal("+491512345678"))
			Expect(u.PhoneVerified).To(BeFalse())

			var stored userDatamodel.User
			Expect(db.First(&stored, u.ID).Error).To(Succeed())
			Expect(*stored.Phone).To(Equal("0151 234-5678"))
			Expect(stored.PasswordHash).To(BeNil())
		})

		It("hashes the password when one is given", func() {
			u, err := service.Register(ctx, user.RegisterDTO{Username: "alice", Phone: "+4915112345678", Password: strPtr("correct horse")})
			Expect(err).NotTo(HaveOccurred())

			var stored userDatamodel.User
			Expect(db.First(&stored, u.ID).Error).To(Succeed())
			Expect(stored.PasswordHash).NotTo(BeNil())
			Expect(bcrypt.CompareHashAndPassword([]byte(*stored.PasswordHash), []byte("correct horse"))).To(Succeed())
		})

		It("rejects a duplicate username", func() {
			_, err := service.Register(ctx, user.RegisterDTO{Username: "alice", Phone: "015112345678"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Register(ctx, user.RegisterDTO{Username: "alice", Phone: "015199999999"})
			expectConflict(err, internal.ErrCodeUsernameTaken)
		})

		It("rejects the same phone written differently", func() {
			_, err := service.Register(ctx, user.RegisterDTO{Username: "alice", Phone: "015112345678"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Register(ctx, user.RegisterDTO{Username: "bob", Phone: "0049 151 12345678"})
			expectConflict(err, internal.ErrCodePhoneTaken)

			var count int64
			db.Model(&userDatamodel.User{}).Count(&count)
			Expect(count).To(Equal(int64(1)))
		})

		It("rejects a duplicate email ignoring case", func() {
			_, err := service.Register(ctx, user.RegisterDTO{Username: "alice", Phone: "015112345678", Email: strPtr("alice@example.com")})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Register(ctx, user.RegisterDTO{Username: "bob", Phone: "015199999999", Email: strPtr("Alice@Example.com")})
			expectConflict(err, internal.ErrCodeEmailTaken)
		})

		It("rejects an invalid phone number", func() {
			_, err := service.Register(ctx, user.RegisterDTO{Username: "alice", Phone: "12"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("rejects a short password", func() {
			_, err := service.Register(ctx, user.RegisterDTO{Username: "alice", Phone: "015112345678", Password: strPtr("short")})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("rejects a password bcrypt cannot hash", func() {
			_, err := service.Register(ctx, user.RegisterDTO{Username: "alice", Password: strPtr(strings.Repeat("x", 80))})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			details := appErr.Details.(internal.ValidationErrors)
			Expect(details.Errors[0].Field).To(Equal("password"))

			_, err = service.Register(ctx, user.RegisterDTO{Username: "alice", Password: strPtr(strings.Repeat("x", 72))})
			Expect(err).NotTo(HaveOccurred())
		})

		It("registers a password-only user", func() {
			u, err := service.Register(ctx, user.RegisterDTO{Username: "alice", Password: strPtr("correct horse")})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Phone).To(BeNil())

			var stored userDatamodel.User
			Expect(db.First(&stored, u.ID).Error).To(Succeed())
			Expect(stored.Phone).To(BeNil())
			Expect(stored.PhoneCanonical).To(BeNil())
			Expect(stored.PasswordHash).NotTo(BeNil())

			// a second phoneless account must not collide on the phone index
			_, err = service.Register(ctx, user.RegisterDTO{Username: "bob", Password: strPtr("battery staple")})
			Expect(err).NotTo(HaveOccurred())
		})

		It("requires a phone or a password", func() {
			_, err := service.Register(ctx, user.RegisterDTO{Username: "alice", Phone: "   "})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			details := appErr.Details.(internal.ValidationErrors)
			Expect(details.Errors[0].Field).To(Equal("phone"))

			var count int64
			db.Model(&userDatamodel.User{}).Count(&count)
			Expect(count).To(BeZero())
		})
	})

	Describe("profile", func() {
		It("returns an empty permission set for a user without groups", func() {
			u, err := service.Register(ctx, user.RegisterDTO{Username: "alice", Phone: "015112345678"})
			Expect(err).NotTo(HaveOccurred())

			profile, err := service.Me(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Username).To(Equal("alice"))
			Expect(profile.Permissions).NotTo(BeNil())
			Expect(profile.Permissions).To(BeEmpty())
		})

		It("reports unknown users", func() {
			_, err := service.Me(ctx, 404)
			Expect(err).To(Equal(internal.ErrUserNotFound))
		})
	})

	Describe("RegisterDevice", func() {
		It("is idempotent per user and token", func() {
			u, err := service.Register(ctx, user.RegisterDTO{Username: "alice", Phone: "015112345678"})
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 2; i++ {
				devices, err := service.RegisterDevice(ctx, u.ID, user.DeviceTokenDTO{Token: "fcm-token-1"})
				Expect(err).NotTo(HaveOccurred())
				Expect(devices).To(HaveLen(1))
			}

			var count int64
			db.Model(&userDatamodel.DeviceToken{}).Count(&count)
			Expect(count).To(Equal(int64(1)))
		})

		It("requires a token", func() {
			_, err := service.RegisterDevice(ctx, 1, user.DeviceTokenDTO{Token: "  "})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})
})
