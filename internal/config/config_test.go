package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(writeConfig(t, `
http:
  addr: ":8080"
jwt:
  secret: "0123456789abcdef"
`))
	require.NoError(t, err)
	assert.Equal(t, "login_at", c.AuthLog.Sort.Column)
	assert.Equal(t, "desc", c.AuthLog.Sort.Direction)
	assert.False(t, c.AuthLog.Sort.UserFirst)
	assert.Equal(t, []int{5, 10, 25, 50}, c.AuthLog.PerPageOptions)
	assert.Equal(t, 50, c.AuthLog.UserAgentLimit)
	assert.Zero(t, c.AuthLog.CountryCacheTTLSec)
	assert.Equal(t, 7200, c.JWT.ExpireSeconds)
	assert.Equal(t, "jwt:jti:", c.Redis.JTIPrefix)
	assert.Equal(t, "authlog_op_log", c.Kafka.OpLogTopic)
	require.Len(t, c.Panels, 1)
	assert.Equal(t, "/admin", c.Panels[0].Path)
	require.Len(t, c.Owners, 1)
	assert.Equal(t, `App\Models\User`, c.Owners[0].Type)
}

func TestLoad_PanelsNormalized(t *testing.T) {
	c, err := Load(writeConfig(t, `
http:
  addr: ":8080"
jwt:
  secret: "0123456789abcdef"
authlog:
  sort:
    direction: ASC
panels:
  - id: app
    path: app/
    tenancy: true
`))
	require.NoError(t, err)
	assert.Equal(t, "asc", c.AuthLog.Sort.Direction)
	assert.Equal(t, "/app", c.Panels[0].Path)
	assert.True(t, c.Panels[0].Tenancy)
}

func TestLoad_Invalid(t *testing.T) {
	base := "http:\n  addr: \":8080\"\njwt:\n  secret: \"0123456789abcdef\"\n"
	cases := map[string]string{
		"short secret":      "http:\n  addr: \":8080\"\njwt:\n  secret: short\n",
		"unsortable column": base + "authlog:\n  sort:\n    column: location\n",
		"bad direction":     base + "authlog:\n  sort:\n    direction: up\n",
		"per_page missing":  base + "authlog:\n  per_page: 7\n",
		"duplicate panel":   base + "panels:\n  - {id: a, path: /a}\n  - {id: a, path: /b}\n",
		"root panel":        base + "panels:\n  - {id: a, path: /}\n",
		"owner incomplete":  base + "owners:\n  - {type: X}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
