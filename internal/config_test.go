package internal_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/frahmantamala/tasktracker/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func validConfig() *internal.Config {
	cfg := &internal.Config{}
	cfg.Database.Driver = internal.DriverSQLite
	cfg.Database.Source = "file::memory:"
	cfg.Security.JWTAccessSecret = "access-secret-for-tests-0123456789"
	cfg.Security.JWTRefreshSecret = "refresh-secret-for-tests-0123456789"
	cfg.SetDefaults()
	return cfg
}

var _ = Describe("Config", func() {
	It("fills defaults for zero values", func() {
		cfg := validConfig()
		Expect(cfg.Server.Port).To(Equal(8080))
		Expect(cfg.Users.DefaultCountryCode).To(Equal("+49"))
		Expect(cfg.Tasks.DefaultDurationHours).To(Equal(48))
		Expect(cfg.OTP.TTL).To(Equal(5 * time.Minute))
		Expect(cfg.OTP.MaxPending).To(Equal(10000))
		Expect(cfg.Notification.MaxWorkers).To(Equal(4))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("keeps explicit values", func() {
		cfg := &internal.Config{}
		cfg.Tasks.DefaultDurationHours = 2
		cfg.OTP.CodeLength = 8
		cfg.SetDefaults()
		Expect(cfg.Tasks.DefaultDurationHours).To(Equal(2))
		Expect(cfg.OTP.CodeLength).To(Equal(8))
	})

	DescribeTable("rejects invalid settings",
		func(mutate func(*internal.Config), message string) {
			cfg := validConfig()
			mutate(cfg)
			Expect(cfg.Validate()).To(MatchError(ContainSubstring(message)))
		},
		Entry("short secret", func(c *internal.Config) { c.Security.JWTAccessSecret = "short" }, "jwt_access_secret"),
		Entry("shared secret", func(c *internal.Config) { c.Security.JWTRefreshSecret = c.Security.JWTAccessSecret }, "must differ"),
		Entry("unknown driver", func(c *internal.Config) { c.Database.Driver = "oracle" }, "unsupported driver"),
		Entry("missing source", func(c *internal.Config) { c.Database.Source = "" }, "source is required"),
		Entry("negative duration", func(c *internal.Config) { c.Tasks.DefaultDurationHours = -1 }, "default_duration_hours"),
		Entry("duration past the cap", func(c *internal.Config) { c.Tasks.DefaultDurationHours = internal.MaxDurationHours + 1 }, "default_duration_hours"),
		Entry("tiny otp", func(c *internal.Config) { c.OTP.CodeLength = 2 }, "code_length"),
		Entry("bad push url", func(c *internal.Config) { c.Notification.PushURL = "not a url" }, "push_url"),
		Entry("access outliving refresh", func(c *internal.Config) { c.Security.AccessTokenDuration = 30 * 24 * time.Hour }, "access_token_duration"),
	)

	It("reads the environment in container mode", func() {
		for key, value := range map[string]string{
			"DB_DRIVER":           internal.DriverSQLite,
			"DB_SOURCE":           "file::memory:",
			"TASK_ALLOW_REFINISH": "false",
			"OTP_TTL":             "90s",
			"SOP_REQUIRED_TITLE":  "House rules",
		} {
			previous, had := os.LookupEnv(key)
			Expect(os.Setenv(key, value)).To(Succeed())
			DeferCleanup(func(key, previous string, had bool) {
				if had {
					_ = os.Setenv(key, previous)
					return
				}
				_ = os.Unsetenv(key)
			}, key, previous, had)
		}

		cfg := internal.LoadConfigFromEnv()
		Expect(cfg.Database.Driver).To(Equal(internal.DriverSQLite))
		Expect(cfg.Tasks.AllowRefinish).To(BeFalse())
		Expect(cfg.OTP.TTL).To(Equal(90 * time.Second))
		Expect(cfg.SOP.RequiredTitle).To(Equal("House rules"))
	})
})

var _ = Describe("AppError", func() {
	It("keeps the cause out of the message but reachable through errors.Is", func() {
		cause := errors.New("connection reset")
		err := internal.NewInternalError("failed to load task", cause)
		Expect(err.StatusCode).To(Equal(http.StatusInternalServerError))
		Expect(errors.Is(err, cause)).To(BeTrue())
		Expect(err.Message).To(Equal("failed to load task"))
	})

	It("surfaces the first field message of validation errors", func() {
		err := internal.NewValidationFieldError("title", "title is required", internal.ErrCodeValidationFailed)
		Expect(err.Error()).To(Equal("title is required"))
		Expect(err.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("maps the taxonomy onto status codes", func() {
		Expect(internal.ErrNotAuthenticated.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(internal.ErrPermissionDenied.StatusCode).To(Equal(http.StatusForbidden))
		Expect(internal.ErrTaskNotFound.StatusCode).To(Equal(http.StatusNotFound))
	})
})

var _ = Describe("request context", func() {
	It("round trips the caller and their group role", func() {
		ctx := internal.ContextWithUser(context.Background(), &internal.User{ID: 1, Username: "alice", Permissions: []string{"export_data"}})
		ctx = internal.ContextWithGroupRole(ctx, "admin")

		u, ok := internal.UserFromContext(ctx)
		Expect(ok).To(BeTrue())
		Expect(u.HasPermission("export_data")).To(BeTrue())
		Expect(u.HasPermission("manage_sops")).To(BeFalse())
		Expect(internal.GroupRoleFromContext(ctx)).To(Equal("admin"))
	})

	It("reports a missing caller", func() {
		_, ok := internal.UserFromContext(context.Background())
		Expect(ok).To(BeFalse())
		var nobody *internal.User
		Expect(nobody.HasPermission("export_data")).To(BeFalse())
	})
})
