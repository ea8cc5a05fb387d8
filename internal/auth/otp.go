package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/frahmantamala/tasktracker/internal"
)

var (
	ErrInvalidOTP         = internal.NewUnauthorizedError("Invalid one-time code", internal.ErrCodeInvalidOTP)
	ErrOTPExpired         = internal.NewUnauthorizedError("One-time code has expired", internal.ErrCodeOTPExpired)
	ErrTooManyPendingOTPs = internal.NewRateLimitedError("Too many pending one-time codes, try again later", internal.ErrCodeTooManyPendingOTPs)
)

type OTPStoreConfig struct {
	TTL        time.Duration
	CodeLength int
	MaxPending int
}

type pendingOTP struct {
	code      string
	expiresAt time.Time
}

// OTPStore keeps issued one-time codes keyed by canonical phone number.
// Entries are removed when verified, when a wrong code is presented, when
// they are found expired, and by the periodic sweep.
type OTPStore struct {
	mu         sync.Mutex
	entries    map[string]pendingOTP
	ttl        time.Duration
	codeLength int
	maxPending int
	now        func() time.Time
	logger     *slog.Logger
}

func NewOTPStore(cfg OTPStoreConfig, logger *slog.Logger) *OTPStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 6
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = 10000
	}
	return &OTPStore{
		entries:    make(map[string]pendingOTP),
		ttl:        cfg.TTL,
		codeLength: cfg.CodeLength,
		maxPending: cfg.MaxPending,
		now:        time.Now,
		logger:     logger,
	}
}

// Issue generates a fresh code for key, replacing any pending one.
func (s *OTPStore) Issue(key string) (string, error) {
	code, err := generateNumericCode(s.codeLength)
	if err != nil {
		return "", internal.NewInternalError("failed to generate one-time code", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if _, replacing := s.entries[key]; !replacing && len(s.entries) >= s.maxPending {
		s.sweepLocked(now)
		if len(s.entries) >= s.maxPending {
			s.logger.Warn("otp store full", "pending", len(s.entries), "max_pending", s.maxPending)
			return "", ErrTooManyPendingOTPs
		}
	}

	s.entries[key] = pendingOTP{code: code, expiresAt: now.Add(s.ttl)}
	return code, nil
}

// Verify consumes the pending code for key. Any outcome other than a
// missing entry removes it.
func (s *OTPStore) Verify(key, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return ErrInvalidOTP
	}
	delete(s.entries, key)

	if !s.now().Before(entry.expiresAt) {
		return ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(entry.code), []byte(code)) != 1 {
		return ErrInvalidOTP
	}
	return nil
}

// Sweep drops expired entries and reports how many were removed.
func (s *OTPStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

func (s *OTPStore) sweepLocked(now time.Time) int {
	removed := 0
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Pending reports the number of codes currently held.
func (s *OTPStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run sweeps on every tick until ctx is cancelled.
func (s *OTPStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("otp sweeper started", "interval", interval)
	for {
		select {
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				s.logger.Debug("expired otp codes swept", "removed", removed)
			}
		case <-ctx.Done():
			s.logger.Info("otp sweeper stopped")
			return
		}
	}
}

func generateNumericCode(length int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
