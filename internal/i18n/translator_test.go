package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslator(t *testing.T) {
	tr, err := New("en", []string{"zh", "en"})
	require.NoError(t, err)
	assert.Equal(t, "en", tr.Default())
	assert.Equal(t, []string{"en", "zh"}, tr.Supported())

	assert.Equal(t, "Authentication Log", tr.T("en", "table.heading"))
	assert.Equal(t, "认证日志", tr.T("zh-CN", "table.heading"))
	assert.Equal(t, "Authentication Log", tr.T("fr", "table.heading"))
	assert.Equal(t, "no.such.key", tr.T("en", "no.such.key"))
	assert.Equal(t, "Showing 1 to 5 of 9 results", tr.T("en", "table.pagination", "1", "5", "9"))
}

func TestNew_Unsupported(t *testing.T) {
	_, err := New("fr", nil)
	assert.Error(t, err)
	_, err = New("en", []string{"de"})
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "zh", Normalize(" zh_CN "))
	assert.Equal(t, "en", Normalize("en-US"))
	assert.Equal(t, "", Normalize(""))
}

func TestLocaleContext(t *testing.T) {
	_, ok := LocaleFromContext(context.Background())
	assert.False(t, ok)
	l, ok := LocaleFromContext(WithLocale(context.Background(), "zh"))
	assert.True(t, ok)
	assert.Equal(t, "zh", l)
}
