package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/erratas/internal/sessions"
)

// sessionLibraries resolves the library belonging to the caller's session.
type sessionLibraries struct {
	manager *sessions.Manager
	store   *sessions.Store
}

func (s sessionLibraries) key(c *gin.Context) string {
	return s.manager.LibraryKey(c.Request.Context())
}

// with runs fn on the caller's library while holding its lock.
func (s sessionLibraries) with(c *gin.Context, fn func(*sessions.Entry) error) error {
	return s.store.With(s.key(c), fn)
}
