package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// UploadLimiter caps how many highlights files one client IP may upload per
// window. Every upload makes a working copy on disk, so unbounded uploads are
// a cheap way to fill it.
type UploadLimiter struct {
	mu          sync.Mutex
	uploads     map[string]*uploadWindow
	maxUploads  int
	window      time.Duration
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type uploadWindow struct {
	count int
	start time.Time
}

// NewUploadLimiter returns a limiter allowing maxUploads per window, or nil
// when maxUploads is not positive. A nil limiter allows everything.
func NewUploadLimiter(maxUploads int, window time.Duration) *UploadLimiter {
	if maxUploads <= 0 {
		return nil
	}
	if window <= 0 {
		window = 10 * time.Minute
	}

	ul := &UploadLimiter{
		uploads:     make(map[string]*uploadWindow),
		maxUploads:  maxUploads,
		window:      window,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go ul.cleanupLoop()
	return ul
}

// Stop stops the background cleanup goroutine.
func (ul *UploadLimiter) Stop() {
	if ul == nil {
		return
	}
	ul.stopOnce.Do(func() { close(ul.stopCleanup) })
}

// Allow records an upload attempt from ip. When the window is exhausted it
// returns false and the time left until the window resets.
func (ul *UploadLimiter) Allow(ip string) (bool, time.Duration) {
	if ul == nil {
		return true, 0
	}
	now := ul.now()

	ul.mu.Lock()
	defer ul.mu.Unlock()

	w, ok := ul.uploads[ip]
	if !ok || now.Sub(w.start) >= ul.window {
		ul.uploads[ip] = &uploadWindow{count: 1, start: now}
		return true, 0
	}
	if w.count >= ul.maxUploads {
		return false, w.start.Add(ul.window).Sub(now)
	}
	w.count++
	return true, 0
}

func (ul *UploadLimiter) cleanupLoop() {
	ticker := time.NewTicker(ul.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ul.cleanup()
		case <-ul.stopCleanup:
			return
		}
	}
}

// cleanup drops windows that have already reset.
func (ul *UploadLimiter) cleanup() {
	now := ul.now()

	ul.mu.Lock()
	defer ul.mu.Unlock()

	for ip, w := range ul.uploads {
		if now.Sub(w.start) >= ul.window {
			delete(ul.uploads, ip)
		}
	}
}

// Middleware rejects uploads over the limit with 429.
func (ul *UploadLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := ul.Allow(c.ClientIP())
		if !allowed {
			seconds := int(retryAfter.Round(time.Second) / time.Second)
			c.Header("Retry-After", strconv.Itoa(max(1, seconds)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "too many uploads, try again later",
				Code:  CodeTooManyUploads,
			})
			return
		}
		c.Next()
	}
}
