package notification_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/frahmantamala/tasktracker/internal/core/database"
	groupDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/group"
	userDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/user"
	"github.com/frahmantamala/tasktracker/internal/notification"
	"github.com/frahmantamala/tasktracker/pkg/logger"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

type pushRecorder struct {
	mu       sync.Mutex
	payloads []map[string]interface{}
	auth     []string
}

func (p *pushRecorder) handler(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	p.mu.Lock()
	p.payloads = append(p.payloads, body)
	p.auth = append(p.auth, r.Header.Get("Authorization"))
	p.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (p *pushRecorder) received() []map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]map[string]interface{}(nil), p.payloads...)
}

func (p *pushRecorder) authHeaders() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.auth...)
}

var _ = Describe("Notifications", func() {
	var (
		ctx context.Context
		db  *gorm.DB
		sx  *sqlx.DB
	)

	addUser := func(username string, tokens ...string) int64 {
		u := &userDatamodel.User{Username: username}
		Expect(db.Create(u).Error).NotTo(HaveOccurred())
		for _, t := range tokens {
			Expect(db.Create(&userDatamodel.DeviceToken{UserID: u.ID, Token: t}).Error).NotTo(HaveOccurred())
		}
		return u.ID
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		db, sx, err = database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	Describe("TokenStore", func() {
		It("resolves tokens by username and by group membership", func() {
			alice := addUser("alice", "tok-a1", "tok-a2")
			addUser("bob", "tok-b1")
			carol := addUser("carol", "tok-c1")

			g := &groupDatamodel.Group{Name: "Home", CreatedBy: "alice"}
			Expect(db.Create(g).Error).NotTo(HaveOccurred())
			Expect(db.Create(&groupDatamodel.Membership{UserID: alice, GroupID: g.ID, Role: "admin"}).Error).NotTo(HaveOccurred())
			Expect(db.Create(&groupDatamodel.Membership{UserID: carol, GroupID: g.ID, Role: "user"}).Error).NotTo(HaveOccurred())

			store := notification.NewTokenStore(sx)

			tokens, err := store.TokensForUsers(ctx, []string{"alice", "bob"})
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens).To(Equal([]string{"tok-a1", "tok-a2", "tok-b1"}))

			tokens, err = store.TokensForGroup(ctx, g.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens).To(Equal([]string{"tok-a1", "tok-a2", "tok-c1"}))

			tokens, err = store.TokensForUsers(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens).To(BeEmpty())
		})
	})

	Describe("Dispatcher", func() {
		var (
			recorder   *pushRecorder
			server     *httptest.Server
			dispatcher *notification.Dispatcher
		)

		BeforeEach(func() {
			recorder = &pushRecorder{}
			server = httptest.NewServer(http.HandlerFunc(recorder.handler))
			dispatcher = notification.NewDispatcher(notification.Config{
				PushURL:    server.URL,
				APIKey:     "secret",
				Timeout:    2 * time.Second,
				MaxWorkers: 2,
				QueueSize:  10,
			}, notification.NewTokenStore(sx), logger.Discard())
		})

		AfterEach(func() {
			dispatcher.Shutdown()
			server.Close()
		})

		It("posts the resolved device tokens to the push gateway", func() {
			addUser("alice", "tok-a1")

			dispatcher.Notify(ctx, notification.Notification{
				Usernames: []string{"alice"},
				Title:     "New task",
				Body:      "Take out the trash",
			})

			Eventually(recorder.received, 2*time.Second).Should(HaveLen(1))
			payload := recorder.received()[0]
			Expect(payload["tokens"]).To(ConsistOf("tok-a1"))
			Expect(payload["title"]).To(Equal("New task"))
			Expect(payload["body"]).To(Equal("Take out the trash"))
			Expect(recorder.authHeaders()[0]).To(Equal("key=secret"))
		})

		It("delivers queued notifications before shutdown returns", func() {
			addUser("alice", "tok-a1")

			for i := 0; i < 5; i++ {
				dispatcher.Notify(ctx, notification.Notification{Usernames: []string{"alice"}, Title: "Reminder"})
			}
			dispatcher.Shutdown()
			Expect(recorder.received()).To(HaveLen(5))

			dispatcher.Notify(ctx, notification.Notification{Usernames: []string{"alice"}, Title: "Late"})
			Consistently(recorder.received, 200*time.Millisecond).Should(HaveLen(5))
		})

		It("skips the gateway when nobody has a registered device", func() {
			addUser("alice")

			dispatcher.Notify(ctx, notification.Notification{Usernames: []string{"alice"}, Title: "x"})

			Consistently(recorder.received, 300*time.Millisecond).Should(BeEmpty())
		})
	})

	Describe("EventHandlers", func() {
		It("routes an unassigned task to the whole group", func() {
			notifier := &capturingNotifier{}
			handlers := notification.NewEventHandlers(notifier, logger.Discard())

			Expect(handlers.HandleTaskCreated(ctx, newTaskCreated(7, 3, "Dishes", "", "alice"))).To(Succeed())
			Expect(handlers.HandleTaskCreated(ctx, newTaskCreated(8, 3, "Laundry", "bob", "alice"))).To(Succeed())

			sent := notifier.sent()
			Expect(sent).To(HaveLen(2))
			Expect(sent[0].Usernames).To(BeEmpty())
			Expect(sent[0].GroupID).To(Equal(int64(3)))
			Expect(sent[1].Usernames).To(Equal([]string{"bob"}))
			Expect(sent[1].Body).To(ContainSubstring("Laundry"))
		})
	})
})
