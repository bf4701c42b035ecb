package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/iudanet/possync/internal/server/handlers"
	"github.com/iudanet/possync/pkg/api"
)

// idleLimiterTTL время, после которого неиспользуемый limiter удаляется
const idleLimiterTTL = 10 * time.Minute

// RateLimiter ограничивает частоту запросов по ключу клиента (token bucket)
type RateLimiter struct {
	limiters map[string]*clientLimiter
	logger   *slog.Logger
	now      func() time.Time
	stopC    chan struct{}
	stopOnce sync.Once
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
}

type clientLimiter struct {
	lastSeen time.Time
	limiter  *rate.Limiter
}

// NewRateLimiter создает новый rate limiter.
// perSecond - устойчивая частота запросов, burst - размер всплеска
func NewRateLimiter(perSecond float64, burst int, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		logger:   logger,
		now:      time.Now,
		stopC:    make(chan struct{}),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}

	// Запускаем периодическую очистку неактивных клиентов
	go rl.cleanup()

	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(idleLimiterTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.removeIdle()
		case <-rl.stopC:
			return
		}
	}
}

// removeIdle удаляет limiters клиентов, не обращавшихся дольше idleLimiterTTL
func (rl *RateLimiter) removeIdle() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastSeen) > idleLimiterTTL {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

// Stop останавливает cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopC) })
}

// Reserve резервирует токен для key. Если запрос не разрешен, возвращает время ожидания
func (rl *RateLimiter) Reserve(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = now
	rl.mu.Unlock()

	r := cl.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	delay := r.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	// запрос отклонен, токен возвращаем в bucket
	r.CancelAt(now)
	return false, delay
}

// Allow проверяет, разрешен ли запрос для данного ключа
func (rl *RateLimiter) Allow(key string) bool {
	ok, _ := rl.Reserve(key)
	return ok
}

// Middleware возвращает HTTP middleware с ключом по устройству или IP адресу
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)

		ok, delay := rl.Reserve(key)
		if !ok {
			rl.logger.Warn("Rate limit exceeded",
				"client", key,
				"method", r.Method,
				"path", r.URL.Path,
			)

			retryAfter := int(math.Ceil(delay.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			handlers.WriteError(w, rl.logger, http.StatusTooManyRequests, api.CodeRateLimited,
				"rate limit exceeded, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientKey выбирает ключ ограничения: аутентифицированное устройство или IP клиента
func clientKey(r *http.Request) string {
	if deviceID, ok := handlers.GetDeviceID(r.Context()); ok && deviceID != "" {
		return "device:" + deviceID
	}
	return "ip:" + getClientIP(r)
}

// getClientIP извлекает IP адрес клиента из запроса
// Проверяет заголовки X-Forwarded-For и X-Real-IP для прокси
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Берем первый IP из списка (реальный клиент)
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
