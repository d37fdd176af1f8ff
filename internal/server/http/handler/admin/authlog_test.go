package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-authlog/internal/config"
	"go-authlog/internal/domain/model"
	"go-authlog/internal/i18n"
	"go-authlog/internal/logging"
	"go-authlog/internal/panel"
	"go-authlog/internal/repository/dao"
	"go-authlog/internal/server/http/middleware"
	"go-authlog/internal/service"
	"go-authlog/internal/testutil"
	"go-authlog/internal/util/retcode"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T) (*gin.Engine, []model.AuthenticationLog) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	testutil.InsertUsers(t, db, model.AdminUser{ID: 7, Username: "alice"}, model.AdminUser{ID: 8, Username: "bob"})
	logs := testutil.InsertLogs(t, db,
		testutil.Owned(model.AuthenticationLog{IPAddress: testutil.Str("10.1.1.1"), UserAgent: strings.Repeat("A", 60),
			LoginAt: testutil.At("2024-06-01 08:00:00"), LoginSuccessful: true, Country: testutil.Str("Spain"), City: testutil.Str("Madrid")},
			testutil.UserType, 7),
		model.AuthenticationLog{IPAddress: testutil.Str("10.2.2.2"), UserAgent: "short-agent",
			LoginAt: testutil.At("2024-06-02 08:00:00"), Country: testutil.Str("Italy")},
		testutil.Owned(model.AuthenticationLog{IPAddress: testutil.Str("10.3.3.3"), UserAgent: "bob-agent",
			LoginAt: testutil.At("2024-06-03 08:00:00"), LoginSuccessful: true}, testutil.UserType, 8),
	)

	reg, err := panel.NewRegistry([]config.Owner{{Type: testutil.UserType, Table: "admin_user", LabelColumn: "username"}})
	require.NoError(t, err)
	tr, err := i18n.New("en", []string{"en", "zh"})
	require.NoError(t, err)
	svc := service.NewAuthLogService(dao.NewAuthenticationLogDAO(db), dao.NewOwnerDAO(db), reg, tr, logging.Nop(), service.AuthLogOptions{})
	h := NewAuthLogHandler(Dependencies{AuthLog: svc, Logger: logging.Nop()})

	tmpl, err := Templates()
	require.NoError(t, err)
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(middleware.Language(tr))
	p := panel.Panel{ID: "admin", Path: "/admin"}
	g := r.Group("/admin")
	g.GET("/authentication-logs", h.List(p))
	g.POST("/authentication-logs", h.Reject(ActionCreate))
	g.PUT("/authentication-logs/:log", h.Reject(ActionEdit))
	g.DELETE("/authentication-logs/:log", h.Reject(ActionDelete))
	g.GET("/:resource/:id/authentications", h.Relation(p))
	g.PATCH("/:resource/:id/authentications/:log", h.Reject(ActionEdit))
	return r, logs
}

func do(r http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestAuthLogHandler_ListHTML(t *testing.T) {
	r, _ := setupRouter(t)
	w := do(r, http.MethodGet, "/admin/authentication-logs?sort=login_at&direction=asc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()

	assert.Contains(t, body, "Authentication Log")
	assert.Contains(t, body, `<a href="/admin/users/edit/7">alice</a>`)
	assert.Contains(t, body, `<a href="/admin/users/edit/8">bob</a>`)
	assert.Contains(t, body, `<span class="placeholder">—</span>`)
	assert.Contains(t, body, `<span title="`+strings.Repeat("A", 60)+`">`+strings.Repeat("A", 50)+`...</span>`)
	assert.Contains(t, body, "short-agent")
	assert.NotContains(t, body, `title="short-agent"`)
	assert.Contains(t, body, `<option value="Italy">Italy</option>`)
	assert.Contains(t, body, "Showing 1 to 3 of 3 results")
	assert.NotContains(t, body, "Madrid", "city column hidden by default")
}

func TestAuthLogHandler_ListJSON(t *testing.T) {
	r, logs := setupRouter(t)
	w := do(r, http.MethodGet, "/admin/authentication-logs?format=json&filters[login_successful]=1&filters[country][]=Spain&columns[]=city", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, retcode.SUCCESS, env.Code)

	var page service.TablePage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Rows, 1)
	assert.Equal(t, logs[0].ID, page.Rows[0].ID)
	assert.Equal(t, []string{"Spain"}, page.Filters.Country.Selected)
	assert.Equal(t, 2, page.Filters.Active)
	assert.False(t, page.Actions.Create)

	var city string
	for _, c := range page.Rows[0].Cells {
		if c.Column == "city" {
			city = c.Text
		}
	}
	assert.Equal(t, "Madrid", city)

	w = do(r, http.MethodGet, "/admin/authentication-logs", map[string]string{"Accept": "application/json"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, retcode.SUCCESS, decode(t, w).Code)
}

func TestAuthLogHandler_ColumnSearchAndLocale(t *testing.T) {
	r, logs := setupRouter(t)
	w := do(r, http.MethodGet, "/admin/authentication-logs?format=json&col_search[ip_address]=10.2&lang=zh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page service.TablePage
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &page))
	require.Len(t, page.Rows, 1)
	assert.Equal(t, logs[1].ID, page.Rows[0].ID)
	assert.Equal(t, "zh", page.Locale)
	assert.Equal(t, "认证日志", page.Heading)
}

func TestAuthLogHandler_Relation(t *testing.T) {
	r, logs := setupRouter(t)
	w := do(r, http.MethodGet, "/admin/users/7/authentications?format=json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page service.TablePage
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &page))
	require.Len(t, page.Rows, 1)
	assert.Equal(t, logs[0].ID, page.Rows[0].ID)
	require.NotNil(t, page.Owner)
	assert.Equal(t, int64(7), page.Owner.ID)

	for _, target := range []string{"/admin/users/99/authentications", "/admin/teams/7/authentications", "/admin/users/abc/authentications"} {
		w = do(r, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.Equal(t, retcode.NOT_EXISTS, decode(t, w).Code, target)
	}
}

func TestAuthLogHandler_MutationsRejected(t *testing.T) {
	r, _ := setupRouter(t)
	cases := []struct{ method, target string }{
		{http.MethodPost, "/admin/authentication-logs"},
		{http.MethodPut, "/admin/authentication-logs/1"},
		{http.MethodDelete, "/admin/authentication-logs/1"},
		{http.MethodPatch, "/admin/users/7/authentications/1"},
	}
	for _, tc := range cases {
		w := do(r, tc.method, tc.target, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, tc.method+" "+tc.target)
		assert.Equal(t, retcode.AUTH_ERROR, decode(t, w).Code)
	}
}

func TestAuthLogHandler_InvalidRequest(t *testing.T) {
	r, _ := setupRouter(t)
	for _, q := range []string{"sort=location", "sort=country&direction=up", "filters[login_from]=yesterday", "page=9223372036854775807"} {
		w := do(r, http.MethodGet, "/admin/authentication-logs?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, retcode.PARAM_INVALID, decode(t, w).Code, q)
	}
}
