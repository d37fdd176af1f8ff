package panel

import "go-authlog/internal/config"

type Panel struct {
	ID      string
	Path    string
	Tenancy bool
}

// Context 构建请求级面板上下文；非多租户面板忽略 tenant
func (p Panel) Context(tenant string) Context {
	if !p.Tenancy {
		tenant = ""
	}
	return Context{ID: p.ID, BasePath: p.Path, Tenant: tenant}
}

func FromConfig(ps []config.Panel) []Panel {
	out := make([]Panel, 0, len(ps))
	for _, p := range ps {
		out = append(out, Panel{ID: p.ID, Path: p.Path, Tenancy: p.Tenancy})
	}
	return out
}
