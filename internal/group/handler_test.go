package group_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/core/database"
	"github.com/frahmantamala/tasktracker/internal/group"
	groupPostgres "github.com/frahmantamala/tasktracker/internal/group/postgres"
	"github.com/frahmantamala/tasktracker/internal/permission"
	permissionPostgres "github.com/frahmantamala/tasktracker/internal/permission/postgres"
	"github.com/frahmantamala/tasktracker/internal/transport"
	"github.com/frahmantamala/tasktracker/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

var _ = Describe("Group Handler", func() {
	var (
		db      *gorm.DB
		handler *group.Handler
		alice   *internal.User
	)

	BeforeEach(func() {
		var err error
		db, _, err = database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())

		permService := permission.NewService(permissionPostgres.NewPermissionRepository(db), logger.Discard())
		service := group.NewService(groupPostgres.NewGroupRepository(db), permService, logger.Discard())
		handler = group.NewHandler(transport.NewBaseHandler(logger.Discard()), service)

		alice = createUser(db, "alice")
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	It("answers 401 when creating a group anonymously", func() {
		req := httptest.NewRequest(http.MethodPost, "/groups", strings.NewReader(`{"name":"Kitchen"}`))
		w := httptest.NewRecorder()

		handler.CreateGroup(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("creates a group and lists it for the creator", func() {
		req := httptest.NewRequest(http.MethodPost, "/groups", strings.NewReader(`{"name":"Kitchen"}`))
		req = req.WithContext(internal.ContextWithUser(req.Context(), alice))
		w := httptest.NewRecorder()

		handler.CreateGroup(w, req)

		Expect(w.Code).To(Equal(http.StatusCreated))
		var created group.Group
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.Name).To(Equal("Kitchen"))

		req = httptest.NewRequest(http.MethodGet, "/users/me/groups", nil)
		req = req.WithContext(internal.ContextWithUser(req.Context(), alice))
		w = httptest.NewRecorder()

		handler.MyGroups(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var response group.UserGroupsResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Groups).To(HaveLen(1))
		Expect(response.Groups[0].Role).To(Equal(group.RoleAdmin))
	})

	It("answers 404 for an unknown group", func() {
		req := withURLParams(httptest.NewRequest(http.MethodGet, "/groups/99", nil), map[string]string{"groupID": "99"})
		w := httptest.NewRecorder()

		handler.GetGroup(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeGroupNotFound)))
	})

	It("answers 400 for a malformed group id", func() {
		req := withURLParams(httptest.NewRequest(http.MethodGet, "/groups/abc", nil), map[string]string{"groupID": "abc"})
		w := httptest.NewRecorder()

		handler.GetGroup(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
