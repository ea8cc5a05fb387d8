package project_test

import (
	"context"
	"time"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/core/database"
	groupDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/group"
	projectDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/project"
	userDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/user"
	"github.com/frahmantamala/tasktracker/internal/project"
	projectPostgres "github.com/frahmantamala/tasktracker/internal/project/postgres"
	"github.com/frahmantamala/tasktracker/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func intPtr(n int) *int { return &n }

var _ = DescribeTable("CanAssign",
	func(whitelist []string, username string, expected bool) {
		Expect(project.CanAssign(whitelist, username)).To(Equal(expected))
	},
	Entry("empty whitelist allows anyone", nil, "carol", true),
	Entry("listed user", []string{"alice", "bob"}, "bob", true),
	Entry("unlisted user", []string{"alice", "bob"}, "carol", false),
)

var _ = Describe("Project Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		clock   time.Time
		service *project.Service
		alice   *internal.User
		groupID int64
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, _, err = database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())

		for _, name := range []string{"alice", "bob", "carol"} {
			Expect(db.Create(&userDatamodel.User{Username: name}).Error).To(Succeed())
		}
		g := &groupDatamodel.Group{Name: "Household", CreatedBy: "alice"}
		Expect(db.Create(g).Error).To(Succeed())
		groupID = g.ID

		clock = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
		alice = &internal.User{ID: 1, Username: "alice"}
		service = project.NewService(projectPostgres.NewProjectRepository(db), nil, logger.Discard()).
			WithClock(func() time.Time { return clock })
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	Describe("CreateProject", func() {
		It("records the creator without requiring membership", func() {
			p, err := service.CreateProject(ctx, alice, project.CreateProjectDTO{Name: "Garden", GroupID: groupID})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.CreatedBy).To(Equal("alice"))
			Expect(p.GroupID).To(Equal(groupID))
		})

		It("rejects an unknown group", func() {
			_, err := service.CreateProject(ctx, alice, project.CreateProjectDTO{Name: "Garden", GroupID: groupID + 100})
			Expect(err).To(Equal(internal.ErrGroupNotFound))
		})

		It("requires a name and a group", func() {
			_, err := service.CreateProject(ctx, alice, project.CreateProjectDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			details := appErr.Details.(internal.ValidationErrors)
			Expect(details.Errors).To(HaveLen(2))
		})
	})

	Describe("todo conversion", func() {
		var (
			p    *project.Project
			todo *project.Todo
		)

		BeforeEach(func() {
			var err error
			p, err = service.CreateProject(ctx, alice, project.CreateProjectDTO{Name: "Garden", GroupID: groupID})
			Expect(err).NotTo(HaveOccurred())
			todo, err = service.CreateTodo(ctx, groupID, p.ID, project.CreateTodoDTO{Title: "Plant tomatoes", Description: "Back bed"})
			Expect(err).NotTo(HaveOccurred())
			Expect(todo.IsTask).To(BeFalse())
			Expect(todo.Completed).To(BeFalse())
			clock = clock.Add(3 * time.Hour)
		})

		convert := func(assignee string) (*project.Todo, error) {
			return service.ConvertTodo(ctx, groupID, p.ID, todo.ID, project.ConvertTodoDTO{
				AssignedTo:    assignee,
				DurationHours: intPtr(24),
				Points:        intPtr(3),
			})
		}

		It("allows anyone when the whitelist is empty", func() {
			converted, err := convert("carol")
			Expect(err).NotTo(HaveOccurred())
			Expect(converted.IsTask).To(BeTrue())
			Expect(*converted.AssignedTo).To(Equal("carol"))
			Expect(*converted.Points).To(Equal(3))
			Expect(*converted.DueDate).To(Equal(clock.Add(24 * time.Hour)))
			Expect(converted.Title).To(Equal("Plant tomatoes"))
			Expect(converted.Description).To(Equal("Back bed"))
			Expect(converted.CreationDate).To(BeTemporally("==", todo.CreationDate))
		})

		It("refuses an assignee missing from a non-empty whitelist and leaves the todo untouched", func() {
			_, err := service.AddToWhitelist(ctx, groupID, p.ID, project.AssignmentDTO{Username: "bob"})
			Expect(err).NotTo(HaveOccurred())

			_, err = convert("carol")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(403))
			Expect(appErr.Code).To(Equal(internal.ErrCodeAssigneeNotWhitelisted))

			var stored projectDatamodel.Todo
			Expect(db.First(&stored, todo.ID).Error).To(Succeed())
			Expect(stored.IsTask).To(BeFalse())
			Expect(stored.AssignedTo).To(BeNil())

			converted, err := convert("bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(*converted.AssignedTo).To(Equal("bob"))
		})

		It("rejects converting twice", func() {
			_, err := convert("bob")
			Expect(err).NotTo(HaveOccurred())

			_, err = convert("carol")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeTodoAlreadyConverted))
		})

		It("validates duration and points", func() {
			_, err := service.ConvertTodo(ctx, groupID, p.ID, todo.ID, project.ConvertTodoDTO{
				AssignedTo:    "bob",
				DurationHours: intPtr(0),
				Points:        intPtr(-1),
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			details := appErr.Details.(internal.ValidationErrors)
			Expect(details.Errors).To(HaveLen(2))
		})

		It("rejects an absurd duration", func() {
			_, err := service.ConvertTodo(ctx, groupID, p.ID, todo.ID, project.ConvertTodoDTO{
				AssignedTo:    "bob",
				DurationHours: intPtr(3000000),
				Points:        intPtr(1),
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			details := appErr.Details.(internal.ValidationErrors)
			Expect(details.Errors).To(HaveLen(1))
			Expect(details.Errors[0].Field).To(Equal("duration_hours"))
			Expect(details.Errors[0].Code).To(Equal(string(internal.ErrCodeInvalidDuration)))

			var stored projectDatamodel.Todo
			Expect(db.First(&stored, todo.ID).Error).To(Succeed())
			Expect(stored.IsTask).To(BeFalse())
			Expect(stored.DueDate).To(BeNil())
		})

		It("does not reach todos through another group", func() {
			_, err := service.ConvertTodo(ctx, groupID+1, p.ID, todo.ID, project.ConvertTodoDTO{
				AssignedTo:    "bob",
				DurationHours: intPtr(1),
				Points:        intPtr(0),
			})
			Expect(err).To(Equal(internal.ErrProjectNotFound))
		})

		It("completes a todo", func() {
			done, err := service.CompleteTodo(ctx, groupID, p.ID, todo.ID, alice)
			Expect(err).NotTo(HaveOccurred())
			Expect(done.Completed).To(BeTrue())
			Expect(*done.CompletedBy).To(Equal("alice"))
		})
	})

	Describe("whitelist", func() {
		var p *project.Project

		BeforeEach(func() {
			var err error
			p, err = service.CreateProject(ctx, alice, project.CreateProjectDTO{Name: "Garage", GroupID: groupID})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a duplicate entry", func() {
			_, err := service.AddToWhitelist(ctx, groupID, p.ID, project.AssignmentDTO{Username: "bob"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AddToWhitelist(ctx, groupID, p.ID, project.AssignmentDTO{Username: "bob"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeAlreadyAssigned))
		})

		It("rejects unknown users", func() {
			_, err := service.AddToWhitelist(ctx, groupID, p.ID, project.AssignmentDTO{Username: "mallory"})
			Expect(err).To(Equal(internal.ErrUserNotFound))
		})

		It("treats removing an absent entry as a no-op", func() {
			usernames, err := service.RemoveFromWhitelist(ctx, groupID, p.ID, "carol")
			Expect(err).NotTo(HaveOccurred())
			Expect(usernames).To(BeEmpty())
		})

		It("shows todos and whitelist on the project detail", func() {
			_, err := service.AddToWhitelist(ctx, groupID, p.ID, project.AssignmentDTO{Username: "carol"})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.AddToWhitelist(ctx, groupID, p.ID, project.AssignmentDTO{Username: "bob"})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateTodo(ctx, groupID, p.ID, project.CreateTodoDTO{Title: "Sweep"})
			Expect(err).NotTo(HaveOccurred())

			detail, err := service.GetProject(ctx, groupID, p.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Whitelist).To(Equal([]string{"bob", "carol"}))
			Expect(detail.Todos).To(HaveLen(1))
		})
	})
})
