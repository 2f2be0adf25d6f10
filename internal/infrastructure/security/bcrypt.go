package security

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/bookmarket/identity/internal/core/domain"
	"github.com/bookmarket/identity/internal/pkg/metrics"
)

// BcryptHasher hashes passwords with bcrypt. The number of hashes computed at
// once is bounded so a burst of logins cannot occupy every CPU.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewBcryptHasher returns a hasher using cost and at most concurrency parallel
// hash computations. Out of range values fall back to bcrypt.DefaultCost and
// runtime.NumCPU respectively.
func NewBcryptHasher(cost, concurrency int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &BcryptHasher{cost: cost, sem: semaphore.NewWeighted(int64(concurrency))}
}

// Hash derives a salted hash of plaintext. Each call uses a fresh salt.
func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: empty password", domain.ErrHash)
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	start := time.Now()
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	metrics.PasswordHashDuration.WithLabelValues("hash").Observe(time.Since(start).Seconds())
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domain.NewValidationError("password must be at most 72 bytes")
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrHash, err)
	}
	return string(out), nil
}

// Verify compares plaintext against hash. A mismatch is (false, nil).
func (h *BcryptHasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	start := time.Now()
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	metrics.PasswordHashDuration.WithLabelValues("verify").Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", domain.ErrHash, err)
	}
}
