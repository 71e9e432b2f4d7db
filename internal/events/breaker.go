package events

import (
	"errors"
	"sync"
	"time"
)

// BreakerState 熔断器状态
type BreakerState int

const (
	StateClosed   BreakerState = iota // 关闭状态（正常）
	StateOpen                         // 开启状态（熔断）
	StateHalfOpen                     // 半开状态（尝试恢复）
)

// ErrBreakerOpen 熔断开启期间快速失败，避免坏掉的 broker 拖慢提交链路。
var ErrBreakerOpen = errors.New("event publisher circuit open")

// Breaker 发布链路的熔断器：连续失败达到阈值后开启，
// resetTimeout 后进入半开试探，成功则恢复。
type Breaker struct {
	maxFailures  int
	resetTimeout time.Duration

	mu           sync.Mutex
	state        BreakerState
	failures     int
	lastFailTime time.Time
}

func NewBreaker(maxFailures int, resetTimeout time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &Breaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
	}
}

// Call 执行 fn 并维护熔断状态。
func (b *Breaker) Call(fn func() error) error {
	b.mu.Lock()
	if b.state == StateOpen {
		if time.Since(b.lastFailTime) < b.resetTimeout {
			b.mu.Unlock()
			return ErrBreakerOpen
		}
		b.state = StateHalfOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.lastFailTime = time.Now()
		if b.state == StateHalfOpen || b.failures >= b.maxFailures {
			b.state = StateOpen
		}
		return err
	}

	b.state = StateClosed
	b.failures = 0
	return nil
}

// State 获取当前状态
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
