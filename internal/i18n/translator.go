package i18n

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// 代码内置可用的 locale；配置只能在其中选择
var builtin = map[string]func() locales.Translator{
	"en": en.New,
	"zh": zh.New,
}

// Translator 按 locale 查询文案，缺失时回退默认 locale，再缺失返回 key 本身
type Translator struct {
	uni           *ut.UniversalTranslator
	defaultLocale string
	supported     []string
}

func New(defaultLocale string, supported []string) (*Translator, error) {
	defaultLocale = Normalize(defaultLocale)
	mk, ok := builtin[defaultLocale]
	if !ok {
		return nil, fmt.Errorf("i18n: unsupported default locale %q", defaultLocale)
	}
	list := make([]locales.Translator, 0, len(supported)+1)
	names := make([]string, 0, len(supported)+1)
	seen := map[string]struct{}{}
	for _, s := range append([]string{defaultLocale}, supported...) {
		s = Normalize(s)
		if _, dup := seen[s]; dup {
			continue
		}
		f, ok := builtin[s]
		if !ok {
			return nil, fmt.Errorf("i18n: unsupported locale %q", s)
		}
		seen[s] = struct{}{}
		list = append(list, f())
		names = append(names, s)
	}
	uni := ut.New(mk(), list...)
	for _, name := range names {
		tr, _ := uni.GetTranslator(name)
		if err := load(tr, name); err != nil {
			return nil, err
		}
	}
	return &Translator{uni: uni, defaultLocale: defaultLocale, supported: names}, nil
}

func load(tr ut.Translator, name string) error {
	b, err := localeFS.ReadFile("locales/" + name + ".yaml")
	if err != nil {
		return fmt.Errorf("i18n: read %s: %w", name, err)
	}
	var m map[string]string
	if err := yaml.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("i18n: parse %s: %w", name, err)
	}
	for k, v := range m {
		if err := tr.Add(k, v, false); err != nil {
			return fmt.Errorf("i18n: add %s/%s: %w", name, k, err)
		}
	}
	return nil
}

// T params 依次替换 {0} {1} ...
func (t *Translator) T(locale, key string, params ...string) string {
	for _, name := range []string{Normalize(locale), t.defaultLocale} {
		tr, ok := t.uni.GetTranslator(name)
		if !ok {
			continue
		}
		if s, err := tr.T(key, params...); err == nil {
			return s
		}
	}
	return key
}

func (t *Translator) Default() string { return t.defaultLocale }

func (t *Translator) Supported() []string { return append([]string(nil), t.supported...) }

// Normalize zh-CN / zh_cn -> zh
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_"); i >= 0 {
		s = s[:i]
	}
	return s
}

type ctxKey struct{}

// WithLocale attaches the request locale to ctx.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext reads the request locale from ctx.
func LocaleFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(ctxKey{}).(string)
	return s, ok && s != ""
}
