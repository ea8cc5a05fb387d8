package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"

	"github.com/frahmantamala/tasktracker/internal"
	authPostgres "github.com/frahmantamala/tasktracker/internal/auth/postgres"
	"github.com/frahmantamala/tasktracker/internal/core/database"
	groupDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/group"
	userDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/user"
	"github.com/frahmantamala/tasktracker/internal/group"
	groupPostgres "github.com/frahmantamala/tasktracker/internal/group/postgres"
	"github.com/frahmantamala/tasktracker/internal/permission"
	permissionPostgres "github.com/frahmantamala/tasktracker/internal/permission/postgres"
	"github.com/frahmantamala/tasktracker/internal/sop"
	sopPostgres "github.com/frahmantamala/tasktracker/internal/sop/postgres"
	"github.com/frahmantamala/tasktracker/internal/task"
	taskPostgres "github.com/frahmantamala/tasktracker/internal/task/postgres"
	"github.com/frahmantamala/tasktracker/internal/user"
	userPostgres "github.com/frahmantamala/tasktracker/internal/user/postgres"
	"github.com/frahmantamala/tasktracker/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with the permission catalog and a demo household for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := database.Open(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		if cfg.Database.Driver == internal.DriverSQLite {
			if err := database.AutoMigrate(db); err != nil {
				log.Fatalf("failed to migrate sqlite schema: %v", err)
			}
		}

		s, err := newSeeder(db, cfg, logger.LoggerWrapper())
		if err != nil {
			log.Fatalf("failed to prepare seeder: %v", err)
		}
		if err := s.run(cmd.Context(), clearData); err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
	},
}

const (
	seedPassword   = "password123"
	seedGroupName  = "Household"
	seedSOPTitle   = "House rules"
	seedSOPVersion = "v1"
)

var seedUsers = []struct {
	Username string
	Phone    string
	Role     string
}{
	{"alice", "+491701000001", group.RoleAdmin},
	{"bob", "+491701000002", group.RoleEditor},
	{"carol", "+491701000003", group.RoleUser},
}

type seeder struct {
	db          *gorm.DB
	logger      *slog.Logger
	permissions *permission.Service
	users       *user.Service
	groups      *group.Service
	tasks       *task.Service
	sops        *sop.Service
}

func newSeeder(db *gorm.DB, cfg *internal.Config, lg *slog.Logger) (*seeder, error) {
	sx, err := database.SQLX(db, cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	permissionService := permission.NewService(permissionPostgres.NewPermissionRepository(db), lg)
	return &seeder{
		db:          db,
		logger:      lg,
		permissions: permissionService,
		users: user.NewService(userPostgres.NewUserRepository(db), authPostgres.NewRepository(sx), user.Config{
			DefaultCountryCode: cfg.Users.DefaultCountryCode,
			BCryptCost:         cfg.Security.BCryptCost,
		}, lg),
		groups: group.NewService(groupPostgres.NewGroupRepository(db), permissionService, lg),
		tasks: task.NewService(taskPostgres.NewTaskRepository(db), nil, task.Config{
			DefaultDurationHours: cfg.Tasks.DefaultDurationHours,
			AllowRefinish:        cfg.Tasks.AllowRefinish,
		}, lg),
		sops: sop.NewService(sopPostgres.NewSOPRepository(db), nil, lg),
	}, nil
}

func (s *seeder) run(ctx context.Context, clear bool) error {
	if clear {
		if err := s.clear(); err != nil {
			return fmt.Errorf("clear data: %w", err)
		}
	}

	if _, err := s.permissions.EnsureCatalog(ctx); err != nil {
		return fmt.Errorf("permission catalog: %w", err)
	}

	members := make([]*internal.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		u, err := s.ensureUser(ctx, su.Username, su.Phone)
		if err != nil {
			return fmt.Errorf("user %s: %w", su.Username, err)
		}
		members = append(members, u)
	}
	admin := members[0]

	g, created, err := s.ensureGroup(ctx, admin)
	if err != nil {
		return fmt.Errorf("group: %w", err)
	}
	if !created {
		s.logger.Info("demo group already present; skipping demo content", "group", seedGroupName)
		return nil
	}

	for i, su := range seedUsers[1:] {
		if _, err := s.groups.AddMember(ctx, g.ID, group.AddMemberDTO{Username: members[i+1].Username, Role: su.Role}); err != nil {
			return fmt.Errorf("add member %s: %w", su.Username, err)
		}
	}

	for _, p := range permission.Catalog() {
		if _, err := s.groups.GrantPermission(ctx, g.ID, group.GrantPermissionDTO{Permission: p.Name}); err != nil {
			return fmt.Errorf("grant %s: %w", p.Name, err)
		}
	}

	bob := seedUsers[1].Username
	demoTasks := []task.CreateTaskDTO{
		{Title: "Take out the trash"},
		{Title: "Water the plants", AssignedTo: &bob, DurationHours: intPtr(24)},
		{Title: "Clean the bathroom", IsRecurring: true, FrequencyHours: intPtr(168), DurationHours: intPtr(72)},
	}
	for _, dto := range demoTasks {
		if _, err := s.tasks.CreateTask(ctx, g.ID, admin, dto); err != nil {
			return fmt.Errorf("task %q: %w", dto.Title, err)
		}
	}

	if _, err := s.sops.Publish(ctx, g.ID, admin, sop.PublishSOPDTO{
		Title:   seedSOPTitle,
		Content: "<p>Finish what you start. Leave the kitchen clean.</p>",
		Version: seedSOPVersion,
	}); err != nil {
		return fmt.Errorf("sop: %w", err)
	}

	s.logger.Info("demo data seeded",
		"group", seedGroupName,
		"users", len(seedUsers),
		"tasks", len(demoTasks),
		"password", seedPassword)
	return nil
}

func (s *seeder) ensureUser(ctx context.Context, username, phone string) (*internal.User, error) {
	var existing userDatamodel.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		return &internal.User{ID: existing.ID, Username: existing.Username}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	password := seedPassword
	u, err := s.users.Register(ctx, user.RegisterDTO{Username: username, Phone: phone, Password: &password})
	if err != nil {
		return nil, err
	}
	s.logger.Info("seeded user", "username", username)
	return &internal.User{ID: u.ID, Username: u.Username}, nil
}

func (s *seeder) ensureGroup(ctx context.Context, creator *internal.User) (*groupDatamodel.Group, bool, error) {
	var existing groupDatamodel.Group
	err := s.db.WithContext(ctx).Where("name = ?", seedGroupName).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	g, err := s.groups.CreateGroup(ctx, creator, group.CreateGroupDTO{Name: seedGroupName})
	if err != nil {
		return nil, false, err
	}
	return &groupDatamodel.Group{ID: g.ID, Name: g.Name, CreatedBy: g.CreatedBy}, true, nil
}

// clear empties every table, children first.
func (s *seeder) clear() error {
	models := database.Models()
	return s.db.Transaction(func(tx *gorm.DB) error {
		for i := len(models) - 1; i >= 0; i-- {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(models[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func intPtr(n int) *int { return &n }
