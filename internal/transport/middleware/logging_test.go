package middleware

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("log filtering", func() {
	It("masks credentials in nested JSON bodies", func() {
		out := filterSensitiveBody([]byte(`{"username":"alice","password":"hunter22","phone":"+4917","devices":[{"token":"abc"}]}`))
		Expect(out).To(ContainSubstring(`"username":"alice"`))
		Expect(out).NotTo(ContainSubstring("hunter22"))
		Expect(out).NotTo(ContainSubstring("+4917"))
		Expect(out).NotTo(ContainSubstring("abc"))
	})

	It("masks the one-time code key only", func() {
		out := filterSensitiveBody([]byte(`{"code":"123456","error_code":"INVALID_OTP"}`))
		Expect(out).NotTo(ContainSubstring("123456"))
		Expect(out).To(ContainSubstring("INVALID_OTP"))
	})

	It("masks authorization headers", func() {
		h := http.Header{}
		h.Set("Authorization", "Bearer xyz")
		h.Set("Accept", "application/json")
		filtered := filterSensitiveHeaders(h)
		Expect(filtered["Authorization"]).To(Equal("[FILTERED]"))
		Expect(filtered["Accept"]).To(Equal("application/json"))
	})

	It("refuses non JSON bodies that mention secrets", func() {
		Expect(filterSensitiveBody([]byte("password=hunter22"))).To(Equal("[FILTERED - Contains sensitive data]"))
		Expect(filterSensitiveBody([]byte("hello"))).To(Equal("hello"))
	})
})

func chiReqID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
