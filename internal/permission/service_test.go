package permission_test

import (
	"context"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/core/database"
	"github.com/frahmantamala/tasktracker/internal/permission"
	permissionPostgres "github.com/frahmantamala/tasktracker/internal/permission/postgres"
	"github.com/frahmantamala/tasktracker/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Permission Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		service *permission.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		gdb, _, err := database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		db = gdb
		service = permission.NewService(permissionPostgres.NewPermissionRepository(db), logger.Discard())
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	Describe("EnsureCatalog", func() {
		It("creates the built-in permissions once", func() {
			created, err := service.EnsureCatalog(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(Equal(len(permission.Catalog())))

			created, err = service.EnsureCatalog(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeZero())
		})
	})

	Describe("ListPermissions", func() {
		It("lists the catalog by name", func() {
			_, err := service.EnsureCatalog(ctx)
			Expect(err).NotTo(HaveOccurred())

			list, err := service.ListPermissions(ctx)
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, 0, len(list))
			for _, p := range list {
				names = append(names, p.Name)
			}
			Expect(names).To(Equal([]string{
				permission.AssignProjects,
				permission.ExportData,
				permission.ManagePermissions,
				permission.ManageProjects,
				permission.ManageSOPs,
			}))
		})

		It("returns an empty list before seeding", func() {
			list, err := service.ListPermissions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
		})
	})

	Describe("GetByName", func() {
		It("finds catalog entries", func() {
			_, err := service.EnsureCatalog(ctx)
			Expect(err).NotTo(HaveOccurred())

			p, err := service.GetByName(ctx, permission.ExportData)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Description).To(Equal("Export task data"))
		})

		It("reports unknown names as not found", func() {
			_, err := service.GetByName(ctx, "launch_rockets")
			Expect(err).To(MatchError(internal.ErrPermissionNotFound))
		})
	})
})
