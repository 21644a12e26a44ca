package embedding

import (
	"context"
	"sync"
	"time"
)

// Availability кэширует результат проверки провайдера на ttl.
// После Invalidate следующая проверка снова обращается к провайдеру.
type Availability struct {
	mu        sync.Mutex
	ttl       time.Duration
	ping      func(ctx context.Context) error
	now       func() time.Time
	checked   bool
	available bool
	checkedAt time.Time
	lastErr   error
}

func NewAvailability(ttl time.Duration, ping func(ctx context.Context) error) *Availability {
	return &Availability{
		ttl:   ttl,
		ping:  ping,
		now:   time.Now,
	}
}

// Check возвращает закэшированный результат или выполняет новую проверку.
func (a *Availability) Check(ctx context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.checked && a.now().Sub(a.checkedAt) < a.ttl {
		return a.available
	}

	a.lastErr = a.ping(ctx)
	a.available = a.lastErr == nil
	a.checked = true
	a.checkedAt = a.now()

	return a.available
}

// Invalidate сбрасывает кэш.
func (a *Availability) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.checked = false
}

// LastError возвращает ошибку последней проверки.
func (a *Availability) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.lastErr
}
