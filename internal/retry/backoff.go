package retry

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"golang.org/x/exp/constraints"
)

// Strategy returns the delay before attempt n+1, or false once no further
// attempt should be made.
type Strategy interface {
	Next(attempt uint) (time.Duration, bool)
}

type never struct{}

func Never() Strategy {
	return never{}
}

func (never) Next(uint) (time.Duration, bool) {
	return 0, false
}

// Jitter maps an upper bound to a delay in [0, bound).
type Jitter func(int64) int64

type exponentialBackOff struct {
	base        time.Duration
	limit       time.Duration
	maxAttempts uint
	jitter      Jitter
}

func ExponentialBackOff(base time.Duration, limit time.Duration, maxAttempts uint, jitter Jitter) Strategy {
	if jitter == nil {
		jitter = rand.Int63n
	}
	return &exponentialBackOff{
		base:        base,
		limit:       limit,
		maxAttempts: maxAttempts,
		jitter:      jitter,
	}
}

func (e *exponentialBackOff) Next(attempt uint) (time.Duration, bool) {
	if attempt >= e.maxAttempts {
		return 0, false
	}

	ceiling := int64(e.limit)
	if attempt < 63 {
		if delay, err := checkedMul(int64(1)<<attempt, int64(e.base)); err == nil {
			ceiling = lesser(delay, ceiling)
		}
	}
	if ceiling <= 0 {
		return 0, true
	}
	return time.Duration(e.jitter(ceiling)), true
}

func lesser[T constraints.Ordered](l T, r T) T {
	if l > r {
		return r
	}
	return l
}

var ErrOverflow = errors.New("overflow")

func checkedMul(l int64, r int64) (int64, error) {
	if l == 0 || r == 0 {
		return 0, nil
	}
	if l > math.MaxInt64/r {
		return 0, ErrOverflow
	}
	return l * r, nil
}
