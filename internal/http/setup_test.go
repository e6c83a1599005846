package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/erratas/internal/audit"
	"github.com/mrlokans/erratas/internal/config"
	"github.com/mrlokans/erratas/internal/database"
	auditRepo "github.com/mrlokans/erratas/internal/database/audit"
	"github.com/mrlokans/erratas/internal/kobo"
	"github.com/mrlokans/erratas/internal/kobo/kobotest"
	"github.com/mrlokans/erratas/internal/library"
	"github.com/mrlokans/erratas/internal/sessions"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const quijoteID = kobotest.QuijoteID

func koboFixture(t *testing.T) []byte {
	return kobotest.Sample(t)
}

type testApp struct {
	router  *gin.Engine
	db      *database.Database
	store   *sessions.Store
	audit   *audit.Service
	wsDir   string
	cookies map[string]*http.Cookie
	csrf    string
}

func newTestApp(t *testing.T, mutate ...func(*RouterConfig)) *testApp {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "erratas.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sm, err := sessions.NewManager(sqlDB, config.Session{Lifetime: time.Hour})
	require.NoError(t, err)
	t.Cleanup(sm.Close)

	registry, err := library.NewRegistry(kobo.Descriptor())
	require.NoError(t, err)

	store := sessions.NewStore(nil)
	t.Cleanup(func() { _ = store.CloseAll() })

	auditService := audit.NewService(auditRepo.NewRepository(db.DB), nil)

	cfg := RouterConfig{
		Registry:       registry,
		Database:       db,
		AuditService:   auditService,
		SessionManager: sm,
		Libraries:      store,
		MaxUploadBytes: 1 << 20,
		WorkspaceDir:   t.TempDir(),
		Version:        "test",
	}
	for _, fn := range mutate {
		fn(&cfg)
	}

	return &testApp{
		router:  NewRouter(cfg),
		db:      db,
		store:   store,
		audit:   auditService,
		wsDir:   cfg.WorkspaceDir,
		cookies: make(map[string]*http.Cookie),
	}
}

// do sends a request carrying the app's cookies and remembers any cookie
// the response sets, like a browser would.
func (a *testApp) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if a.csrf != "" {
		req.Header.Set(CSRFTokenHeader, a.csrf)
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		a.cookies[c.Name] = c
	}
	return w
}

func (a *testApp) doJSON(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return a.do(t, method, path, bytes.NewReader(data), "application/json")
}

func (a *testApp) upload(t *testing.T, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(uploadFormField, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return a.do(t, http.MethodPost, "/api/library", &buf, mw.FormDataContentType())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
