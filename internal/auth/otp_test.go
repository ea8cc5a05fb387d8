package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/tasktracker/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("OTPStore", func() {
	var (
		store *OTPStore
		clock time.Time
	)

	newStore := func(cfg OTPStoreConfig) *OTPStore {
		s := NewOTPStore(cfg, logger.Discard())
		s.now = func() time.Time { return clock }
		return s
	}

	BeforeEach(func() {
		clock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		store = newStore(OTPStoreConfig{TTL: time.Minute, CodeLength: 6, MaxPending: 3})
	})

	It("issues numeric codes of the configured length", func() {
		code, err := store.Issue("+491701000001")
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(MatchRegexp(`^[0-9]{6}$`))
		Expect(store.Pending()).To(Equal(1))
	})

	It("accepts the right code exactly once", func() {
		code, err := store.Issue("+491701000001")
		Expect(err).NotTo(HaveOccurred())

		Expect(store.Verify("+491701000001", code)).To(Succeed())
		Expect(store.Verify("+491701000001", code)).To(MatchError(ErrInvalidOTP))
		Expect(store.Pending()).To(Equal(0))
	})

	It("drops the pending code after a wrong guess", func() {
		code, err := store.Issue("+491701000001")
		Expect(err).NotTo(HaveOccurred())

		wrong := "000000"
		if code == wrong {
			wrong = "111111"
		}
		Expect(store.Verify("+491701000001", wrong)).To(MatchError(ErrInvalidOTP))
		Expect(store.Verify("+491701000001", code)).To(MatchError(ErrInvalidOTP))
	})

	It("replaces a pending code when a new one is issued", func() {
		first, err := store.Issue("+491701000001")
		Expect(err).NotTo(HaveOccurred())
		second, err := store.Issue("+491701000001")
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Pending()).To(Equal(1))

		if first != second {
			Expect(store.Verify("+491701000001", first)).To(MatchError(ErrInvalidOTP))
			return
		}
		Expect(store.Verify("+491701000001", second)).To(Succeed())
	})

	It("rejects expired codes", func() {
		code, err := store.Issue("+491701000001")
		Expect(err).NotTo(HaveOccurred())

		clock = clock.Add(time.Minute)
		Expect(store.Verify("+491701000001", code)).To(MatchError(ErrOTPExpired))
		Expect(store.Pending()).To(Equal(0))
	})

	It("sweeps only expired entries", func() {
		_, err := store.Issue("+491701000001")
		Expect(err).NotTo(HaveOccurred())
		clock = clock.Add(30 * time.Second)
		_, err = store.Issue("+491701000002")
		Expect(err).NotTo(HaveOccurred())

		clock = clock.Add(40 * time.Second)
		Expect(store.Sweep()).To(Equal(1))
		Expect(store.Pending()).To(Equal(1))
	})

	Context("when the store is full", func() {
		BeforeEach(func() {
			for _, key := range []string{"+491701000001", "+491701000002", "+491701000003"} {
				_, err := store.Issue(key)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("refuses new keys while every entry is live", func() {
			_, err := store.Issue("+491701000004")
			Expect(err).To(MatchError(ErrTooManyPendingOTPs))
			Expect(store.Pending()).To(Equal(3))
		})

		It("still reissues for a key that is already pending", func() {
			_, err := store.Issue("+491701000002")
			Expect(err).NotTo(HaveOccurred())
		})

		It("makes room by sweeping expired entries", func() {
			clock = clock.Add(2 * time.Minute)
			_, err := store.Issue("+491701000004")
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Pending()).To(Equal(1))
		})
	})

	It("stops the sweeper when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			store.Run(ctx, 10*time.Millisecond)
		}()

		cancel()
		Eventually(done).Should(BeClosed())
	})
})
