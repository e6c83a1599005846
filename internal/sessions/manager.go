// Package sessions ties browser sessions to the libraries they uploaded.
//
// The scs cookie session only carries an opaque library key; the Library
// itself, with its working copy on disk, lives in a process-local Store.
package sessions

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"

	"github.com/mrlokans/erratas/internal/config"
)

// Session data keys
const (
	SessionKeyLibrary = "library_key"
)

const cookieName = "erratas_session"

// Manager wraps scs.SessionManager with application-specific methods.
type Manager struct {
	*scs.SessionManager
	store *sqlite3store.SQLite3Store
}

// NewManager creates a configured session manager.
// The sqlDB parameter should be the underlying *sql.DB from GORM.
func NewManager(sqlDB *sql.DB, cfg config.Session) (*Manager, error) {
	// Create sessions table if it doesn't exist
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()

	store := sqlite3store.New(sqlDB)
	sm.Store = store

	sm.Lifetime = cfg.Lifetime
	sm.IdleTimeout = cfg.Lifetime / 2

	sm.Cookie.Name = cookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &Manager{SessionManager: sm, store: store}, nil
}

// LibraryKey returns the library key of the current session, or "" when the
// session has not uploaded anything yet.
func (m *Manager) LibraryKey(ctx context.Context) string {
	return m.GetString(ctx, SessionKeyLibrary)
}

// EnsureLibraryKey returns the session's library key, allocating one on
// first use.
func (m *Manager) EnsureLibraryKey(ctx context.Context) string {
	if key := m.LibraryKey(ctx); key != "" {
		return key
	}
	key := uuid.NewString()
	m.Put(ctx, SessionKeyLibrary, key)
	return key
}

// Close stops the background cleanup of expired session rows.
func (m *Manager) Close() {
	m.store.StopCleanup()
}
