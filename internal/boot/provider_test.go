package boot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go-authlog/internal/config"
	"go-authlog/internal/domain/model"
	"go-authlog/internal/i18n"
	"go-authlog/internal/logging"
	"go-authlog/internal/panel"
	"go-authlog/internal/repository/dao"
	"go-authlog/internal/service"
	"go-authlog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestConfig(t *testing.T, extra string) *config.Config {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	body := "http:\n  addr: \":8080\"\njwt:\n  secret: \"0123456789abcdef\"\n" + extra
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	c, err := ProvideConfig(p)
	require.NoError(t, err)
	return c
}

func newTableService(t *testing.T, c *config.Config) (*service.AuthLogService, *dao.AuthenticationLogDAO) {
	t.Helper()
	db := testutil.NewDB(t)
	d := dao.NewAuthenticationLogDAO(db)
	reg, err := panel.NewRegistry(c.Owners)
	require.NoError(t, err)
	tr, err := i18n.New(c.I18n.DefaultLocale, c.I18n.Supported)
	require.NoError(t, err)
	opts, err := NewAuthLogOptions(c)
	require.NoError(t, err)
	store := NewLogStore(d, nil, logging.Nop(), c)
	return service.NewAuthLogService(store, dao.NewOwnerDAO(db), reg, tr, logging.Nop(), opts), d
}

func TestNewLogStore_DefaultSeesNewCountries(t *testing.T) {
	c := loadTestConfig(t, "")
	svc, d := newTableService(t, c)
	ctx := context.Background()

	page, err := svc.Table(ctx, service.TableRequest{})
	require.NoError(t, err)
	assert.Nil(t, page.Filters.Country)

	testutil.InsertLogs(t, d.DB, model.AuthenticationLog{UserAgent: "ua", Country: testutil.Str("Japan")})
	page, err = svc.Table(ctx, service.TableRequest{Filters: service.FilterInput{Countries: []string{"Japan"}}})
	require.NoError(t, err)
	require.NotNil(t, page.Filters.Country)
	assert.Equal(t, []string{"Japan"}, page.Filters.Country.Options)
	assert.Equal(t, []string{"Japan"}, page.Filters.Country.Selected)
	assert.Len(t, page.Rows, 1)

	testutil.InsertLogs(t, d.DB, model.AuthenticationLog{UserAgent: "ua", Country: testutil.Str("Chile")})
	page, err = svc.Table(ctx, service.TableRequest{Filters: service.FilterInput{Countries: []string{"Japan"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chile", "Japan"}, page.Filters.Country.Options)
	assert.Len(t, page.Rows, 1)
}

func TestNewLogStore_CacheIsOptIn(t *testing.T) {
	d := dao.NewAuthenticationLogDAO(testutil.NewDB(t))

	off := NewLogStore(d, nil, logging.Nop(), loadTestConfig(t, ""))
	assert.Same(t, d, off)

	on := NewLogStore(d, nil, logging.Nop(), loadTestConfig(t, "authlog:\n  country_cache_ttl_sec: 30\n"))
	cached, ok := on.(*service.CachedLogStore)
	require.True(t, ok)
	assert.Equal(t, 30, int(cached.TTL.Seconds()))
}

func TestTraceCredentials(t *testing.T) {
	assert.Equal(t, "insecure", traceCredentials(true).Info().SecurityProtocol)
	assert.Equal(t, "tls", traceCredentials(false).Info().SecurityProtocol)
}
