// Package jitter предоставляет утилиты для добавления случайности в интервалы отступления (backoff),
// чтобы повторные обращения к внешним сервисам не приходили одновременно.
package jitter

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter - стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Backoff описывает политику экспоненциального отступления.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64 // коэффициент джиттера, 0 отключает случайность
}

// NewBackoff создаёт политику с DefaultJitter.
func NewBackoff(base, max time.Duration) Backoff {
	return Backoff{Base: base, Max: max, Factor: DefaultJitter}
}

// Delay возвращает задержку перед попыткой attempt (нумерация с нуля) без джиттера.
func (b Backoff) Delay(attempt int) time.Duration {
	delay := b.Base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if b.Max > 0 && delay >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && delay > b.Max {
		return b.Max
	}
	return delay
}

// Next возвращает задержку перед попыткой attempt с применённым джиттером.
func (b Backoff) Next(attempt int) time.Duration {
	return Duration(b.Delay(attempt), b.Factor)
}

// Duration возвращает продолжительность с применённым джиттером.
// Результат находится в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 || d <= 0 {
		return d
	}
	randMutex.Lock()
	jitter := globalRand.Float64() * jitterFactor * float64(d)
	randMutex.Unlock()
	return d + time.Duration(jitter)
}

// ExponentialBackoff вычисляет экспоненциальное отступление с джиттером.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	return Backoff{Base: base, Max: max, Factor: jitterFactor}.Next(attempt)
}
