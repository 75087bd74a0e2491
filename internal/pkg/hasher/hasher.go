// Package hasher runs bcrypt on a bounded set of worker goroutines so that
// hashing bursts cannot starve request handling.
package hasher

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

type Pool struct {
	sem  *semaphore.Weighted
	cost int
	// dummy is compared against when the account does not exist, so that
	// unknown identifiers cost the same as wrong passwords.
	dummy []byte
}

func New(workers, cost int) (*Pool, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash failed: %w", err)
	}
	return &Pool{
		sem:   semaphore.NewWeighted(int64(workers)),
		cost:  cost,
		dummy: dummy,
	}, nil
}

type hashResult struct {
	hash []byte
	err  error
}

func (p *Pool) Hash(ctx context.Context, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	done := make(chan hashResult, 1)
	go func() {
		defer p.sem.Release(1)
		hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
		done <- hashResult{hash: hash, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("hash password failed: %w", res.err)
		}
		return string(res.hash), nil
	}
}

// Compare reports whether candidate matches hash. A mismatch, a malformed
// hash and a cancelled context all yield false.
func (p *Pool) Compare(ctx context.Context, hash, candidate string) bool {
	stored := []byte(hash)
	if hash == "" {
		stored = p.dummy
	}
	if ctx.Err() != nil {
		return false
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	done := make(chan bool, 1)
	go func() {
		defer p.sem.Release(1)
		done <- bcrypt.CompareHashAndPassword(stored, []byte(candidate)) == nil
	}()

	select {
	case <-ctx.Done():
		return false
	case ok := <-done:
		return ok && hash != ""
	}
}
