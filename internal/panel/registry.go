// Package panel 维护后台面板上下文与日志归属方资源登记表。
//
// 归属方链接解析只依赖启动时构建的静态登记表和显式传入的面板上下文，
// 不读取任何全局状态。
package panel

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"go-authlog/internal/config"

	"github.com/jinzhu/inflection"
)

// Context 当前请求所处的面板 / 租户范围
type Context struct {
	ID       string
	BasePath string
	Tenant   string
}

// URL 将面板内相对路径挂到 BasePath[/Tenant] 下
func (c Context) URL(rel string) string {
	parts := []string{c.BasePath}
	if c.Tenant != "" {
		parts = append(parts, c.Tenant)
	}
	parts = append(parts, rel)
	return path.Join(parts...)
}

// Resource 一个可被日志引用的归属方资源
type Resource struct {
	Type        string // 多态类型标记，如 App\Models\User
	Slug        string // 资源路径段，如 users
	Table       string
	LabelColumn string
}

// Link 归属方编辑页链接
type Link struct {
	Path  string `json:"path"` // <slug>/edit/<id>
	URL   string `json:"url"`  // 含面板与租户前缀
	Label string `json:"label"`
}

type Registry struct {
	byType map[string]Resource
	bySlug map[string]Resource
}

func NewRegistry(owners []config.Owner) (*Registry, error) {
	r := &Registry{byType: make(map[string]Resource, len(owners)), bySlug: make(map[string]Resource, len(owners))}
	for _, o := range owners {
		res := Resource{Type: o.Type, Slug: strings.ToLower(strings.TrimSpace(o.Slug)), Table: o.Table, LabelColumn: o.LabelColumn}
		if res.Slug == "" {
			res.Slug = Slug(o.Type)
		}
		if res.Slug == "" {
			return nil, fmt.Errorf("owner %q: empty resource slug", o.Type)
		}
		if _, dup := r.byType[res.Type]; dup {
			return nil, fmt.Errorf("owner type %q registered twice", res.Type)
		}
		if prev, dup := r.bySlug[res.Slug]; dup {
			return nil, fmt.Errorf("owner slug %q used by %q and %q", res.Slug, prev.Type, res.Type)
		}
		r.byType[res.Type] = res
		r.bySlug[res.Slug] = res
	}
	return r, nil
}

// Slug 取类型标记最后一段，转小写后复数化：App\Models\User -> users
func Slug(typeTag string) string {
	base := typeTag
	if i := strings.LastIndexAny(base, `\/.:`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.ToLower(strings.TrimSpace(base))
	if base == "" {
		return ""
	}
	return inflection.Plural(base)
}

func (r *Registry) Lookup(typeTag string) (Resource, bool) {
	res, ok := r.byType[typeTag]
	return res, ok
}

func (r *Registry) BySlug(slug string) (Resource, bool) {
	res, ok := r.bySlug[strings.ToLower(slug)]
	return res, ok
}

// Resources 按 slug 排序，便于注册路由时输出稳定
func (r *Registry) Resources() []Resource {
	out := make([]Resource, 0, len(r.byType))
	for _, res := range r.byType {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// ResolveOwnerLink 类型未登记时返回 false，由调用方降级展示原始 id
func (r *Registry) ResolveOwnerLink(pc Context, typeTag string, id int64, label string) (Link, bool) {
	res, ok := r.byType[typeTag]
	if !ok {
		return Link{}, false
	}
	rel := res.Slug + "/edit/" + strconv.FormatInt(id, 10)
	return Link{Path: rel, URL: pc.URL(rel), Label: label}, true
}
