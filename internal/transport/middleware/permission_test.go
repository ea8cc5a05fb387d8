package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubGate struct {
	err   error
	calls int
}

func (g *stubGate) Check(_ context.Context, _, _ int64, _ string) error {
	g.calls++
	return g.err
}

var _ = Describe("RequireSOPAgreement", func() {
	var (
		gate    *stubGate
		router  *chi.Mux
		reached bool
	)

	build := func(title string) {
		router = chi.NewRouter()
		router.With(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("X-Test-User") != "" {
					r = r.WithContext(internal.ContextWithUser(r.Context(), &internal.User{ID: 1, Username: "alice"}))
				}
				next.ServeHTTP(w, r)
			})
		}, RequireSOPAgreement(gate, title, logger.Discard())).Get("/groups/{groupID}/tasks", func(w http.ResponseWriter, r *http.Request) {
			reached = true
			w.WriteHeader(http.StatusOK)
		})
	}

	serve := func(authenticated bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/groups/5/tasks", nil)
		if authenticated {
			req.Header.Set("X-Test-User", "1")
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		gate = &stubGate{}
		reached = false
	})

	It("passes through when no title is configured", func() {
		gate.err = internal.ErrPermissionDenied
		build("")
		Expect(serve(true).Code).To(Equal(http.StatusOK))
		Expect(gate.calls).To(BeZero())
	})

	It("answers 401 before consulting the gate", func() {
		build("House rules")
		Expect(serve(false).Code).To(Equal(http.StatusUnauthorized))
		Expect(gate.calls).To(BeZero())
		Expect(reached).To(BeFalse())
	})

	It("forwards the gate's refusal", func() {
		gate.err = internal.NewForbiddenError("agree first", internal.ErrCodeSOPAgreementRequired)
		build("House rules")

		rec := serve(true)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		var body map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(rec.Body.String()).To(ContainSubstring("SOP_AGREEMENT_REQUIRED"))
		Expect(reached).To(BeFalse())
	})

	It("lets agreed users through", func() {
		build("House rules")
		Expect(serve(true).Code).To(Equal(http.StatusOK))
		Expect(gate.calls).To(Equal(1))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("hides the panic value behind the internal error envelope", func() {
		h := RecoveryMiddleware(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom secret")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).NotTo(ContainSubstring("boom secret"))
	})
})

var _ = Describe("RequestID", func() {
	It("echoes a supplied id and mints one otherwise", func() {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = chiReqID(r)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		Expect(rec.Header().Get(RequestIDHeader)).To(Equal("abc-123"))
		Expect(seen).To(Equal("abc-123"))

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Header().Get(RequestIDHeader)).NotTo(BeEmpty())
	})
})
