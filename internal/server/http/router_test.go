package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-authlog/internal/config"
	"go-authlog/internal/domain/model"
	"go-authlog/internal/i18n"
	"go-authlog/internal/logging"
	"go-authlog/internal/panel"
	"go-authlog/internal/repository/dao"
	"go-authlog/internal/security/jwt"
	"go-authlog/internal/service"
	"go-authlog/internal/testutil"
	"go-authlog/internal/util/retcode"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	testutil.InsertUsers(t, db, model.AdminUser{ID: 7, Username: "alice"})
	testutil.InsertLogs(t, db, testutil.Owned(model.AuthenticationLog{UserAgent: "ua", LoginAt: testutil.At("2024-06-01 08:00:00")}, testutil.UserType, 7))

	reg, err := panel.NewRegistry([]config.Owner{{Type: testutil.UserType, Table: "admin_user", LabelColumn: "username"}})
	require.NoError(t, err)
	tr, err := i18n.New("en", []string{"en", "zh"})
	require.NoError(t, err)
	lg := logging.Nop()
	mgr := jwt.NewManager("test-secret", 60, "authlog-test")
	r, err := NewRouter(RouterDeps{
		Config: &config.Config{},
		Logger: lg,
		JWT:    mgr,
		DB:     db,
		Trans:  tr,
		Panels: []panel.Panel{{ID: "admin", Path: "/admin"}, {ID: "app", Path: "/app", Tenancy: true}},
		AuthLog: service.NewAuthLogService(dao.NewAuthenticationLogDAO(db), dao.NewOwnerDAO(db), reg, tr, lg,
			service.AuthLogOptions{}),
	})
	require.NoError(t, err)
	return r, mgr
}

func serve(r http.Handler, method, target, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func bodyCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var body struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Code
}

func TestRouter_RequiresToken(t *testing.T) {
	r, mgr := newTestRouter(t)

	w := serve(r, http.MethodGet, "/admin/authentication-logs", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, retcode.AUTH_ERROR, bodyCode(t, w))

	w = serve(r, http.MethodGet, "/admin/authentication-logs", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other := jwt.NewManager("test-secret", 60, "someone-else")
	tok, err := other.Generate(1, nil, "j1")
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/admin/authentication-logs", tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err = mgr.Generate(1, []int64{1}, "j2")
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/admin/authentication-logs?format=json", tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, retcode.SUCCESS, bodyCode(t, w))
	assert.NotEmpty(t, w.Header().Get("X-Trace-Id"))
}

func TestRouter_TenantPanelLinks(t *testing.T) {
	r, mgr := newTestRouter(t)
	tok, err := mgr.Generate(1, nil, "j")
	require.NoError(t, err)

	w := serve(r, http.MethodGet, "/app/acme/users/7/authentications", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<a href="/app/acme/users/edit/7">alice</a>`)

	w = serve(r, http.MethodGet, "/admin/users/7/authentications", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<a href="/admin/users/edit/7">alice</a>`)
}

func TestRouter_MutationsForbidden(t *testing.T) {
	r, mgr := newTestRouter(t)
	tok, err := mgr.Generate(1, nil, "j")
	require.NoError(t, err)
	for _, tc := range []struct{ method, target string }{
		{http.MethodPost, "/admin/authentication-logs"},
		{http.MethodDelete, "/admin/authentication-logs"},
		{http.MethodPatch, "/admin/authentication-logs/1"},
		{http.MethodPost, "/admin/users/7/authentications"},
		{http.MethodPut, "/app/acme/users/7/authentications/1"},
		{http.MethodDelete, "/app/acme/users/7/authentications/1"},
	} {
		w := serve(r, tc.method, tc.target, tok)
		assert.Equal(t, http.StatusForbidden, w.Code, tc.method+" "+tc.target)
		assert.Equal(t, retcode.AUTH_ERROR, bodyCode(t, w))
	}
}

func TestRouter_HealthAndNoRoute(t *testing.T) {
	r, _ := newTestRouter(t)

	w := serve(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/readyz?refresh=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ready map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.Equal(t, "ok", ready["status"])
	assert.Equal(t, "up", ready["db"])
	assert.Equal(t, "disabled", ready["redis"])
	assert.Equal(t, "disabled", ready["kafka"])
	assert.Equal(t, "disabled", ready["etcd"])

	w = serve(r, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, retcode.NOT_EXISTS, bodyCode(t, w))
}

func TestHealthChecker_NilDBDegraded(t *testing.T) {
	hc := NewHealthChecker(nil, nil, nil, nil)
	res, code := hc.Readiness(t.Context())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", res["status"])
}
