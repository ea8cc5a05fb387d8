package notification_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/tasktracker/internal/notification"
	"github.com/frahmantamala/tasktracker/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SMSSender", func() {
	It("posts the code to the gateway", func() {
		var got map[string]string
		var auth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		sender := notification.NewSMSSender(notification.SMSConfig{
			APIURL: server.URL,
			APIKey: "k",
			Sender: "Tasks",
		}, logger.Discard())

		Expect(sender.SendOTP(context.Background(), "+491701234567", "123456")).To(Succeed())
		Expect(got["to"]).To(Equal("+491701234567"))
		Expect(got["from"]).To(Equal("Tasks"))
		Expect(got["message"]).To(ContainSubstring("123456"))
		Expect(auth).To(Equal("Bearer k"))
	})

	It("sends a login notice without a code", func() {
		var got map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		sender := notification.NewSMSSender(notification.SMSConfig{APIURL: server.URL}, logger.Discard())
		Expect(sender.SendLoginNotice(context.Background(), "+491701234567")).To(Succeed())
		Expect(got["to"]).To(Equal("+491701234567"))
		Expect(got["message"]).To(ContainSubstring("logged in"))
	})

	It("reports gateway failures", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		sender := notification.NewSMSSender(notification.SMSConfig{APIURL: server.URL}, logger.Discard())
		Expect(sender.SendOTP(context.Background(), "+491701234567", "123456")).To(MatchError(ContainSubstring("502")))
	})

	It("only logs when no gateway is configured", func() {
		sender := notification.NewSMSSender(notification.SMSConfig{}, logger.Discard())
		Expect(sender.SendOTP(context.Background(), "+491701234567", "123456")).To(Succeed())
	})
})
