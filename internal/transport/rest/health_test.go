package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/tasktracker/internal/core/database"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HealthHandler", func() {
	decode := func(rec *httptest.ResponseRecorder) HealthResponse {
		var resp HealthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		return resp
	}

	It("answers the liveness probe without touching the database", func() {
		rec := httptest.NewRecorder()
		NewHealthHandler(nil).pingHandler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"OK"`))
	})

	It("reports server time on the heartbeat", func() {
		rec := httptest.NewRecorder()
		NewHealthHandler(nil).heartbeatHandler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/heartbeat", nil))

		var body map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body).To(HaveKey("server_time"))
		Expect(body["uptime_seconds"]).To(BeNumerically(">=", 0))
	})

	It("is healthy with a reachable database", func() {
		gdb, _, err := database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := gdb.DB()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(sqlDB.Close)

		rec := httptest.NewRecorder()
		NewHealthHandler(sqlDB).healthCheckHandler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))

		resp := decode(rec)
		Expect(resp.Status).To(Equal(HealthHealthy))
		Expect(resp.Components).To(HaveKey("database"))
		Expect(resp.Components["database"].Details).To(HaveKey("open_connections"))
	})

	It("is unavailable once the database is closed", func() {
		gdb, _, err := database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := gdb.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())

		rec := httptest.NewRecorder()
		NewHealthHandler(sqlDB).healthCheckHandler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(decode(rec).Components["database"].Status).To(Equal(HealthUnhealthy))
	})

	It("is unavailable without a database", func() {
		rec := httptest.NewRecorder()
		NewHealthHandler(nil).healthCheckHandler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(decode(rec).Components["database"].Message).To(Equal("database not configured"))
	})
})
