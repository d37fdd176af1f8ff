package admin

import (
	"embed"
	"html/template"
	"net/url"
	"strconv"

	"go-authlog/internal/service"

	"github.com/gin-gonic/gin"
)

// TableTemplate 认证日志表格片段的模板名
const TableTemplate = "authlog/table"

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates 供 router 调用 SetHTMLTemplate
func Templates() (*template.Template, error) {
	return template.New("admin").Funcs(template.FuncMap{
		"deref": func(b *bool) bool { return b != nil && *b },
	}).ParseFS(templateFS, "templates/*.tmpl")
}

// tableView 模板数据：表格页 + 基于当前查询串生成链接
type tableView struct {
	*service.TablePage
	PageInfo string
	path     string
	query    url.Values
}

func newTableView(c *gin.Context, page *service.TablePage, info string) tableView {
	return tableView{TablePage: page, PageInfo: info, path: c.Request.URL.Path, query: c.Request.URL.Query()}
}

func (v tableView) link(set map[string]string) string {
	q := url.Values{}
	for k, vs := range v.query {
		q[k] = append([]string(nil), vs...)
	}
	q.Del("format")
	for k, val := range set {
		q.Set(k, val)
	}
	if len(q) == 0 {
		return v.path
	}
	return v.path + "?" + q.Encode()
}

func (v tableView) FormPath() string { return v.path }

func (v tableView) Label(key string) string {
	if s, ok := v.Labels[key]; ok {
		return s
	}
	return key
}

// SortURL 再次点击当前排序列时切换方向
func (v tableView) SortURL(col string) string {
	dir := "asc"
	if v.Sort.Column == col && v.Sort.Direction == "asc" {
		dir = "desc"
	}
	return v.link(map[string]string{"sort": col, "direction": dir, "page": "1"})
}

func (v tableView) SortIndicator(col string) string {
	if v.Sort.Column != col {
		return ""
	}
	if v.Sort.Direction == "desc" {
		return " ↓"
	}
	return " ↑"
}

func (v tableView) PageURL(n int) string {
	return v.link(map[string]string{"page": strconv.Itoa(n)})
}

func (v tableView) PerPageURL(n int) string {
	return v.link(map[string]string{"per_page": strconv.Itoa(n), "page": "1"})
}

func (v tableView) HasPrev() bool { return v.Pagination.Page > 1 }

func (v tableView) HasNext() bool { return v.Pagination.Page < v.Pagination.LastPage }

func (v tableView) PrevPage() int { return v.Pagination.Page - 1 }

func (v tableView) NextPage() int { return v.Pagination.Page + 1 }

func (v tableView) CountrySelected(country string) bool {
	if v.Filters.Country == nil {
		return false
	}
	for _, s := range v.Filters.Country.Selected {
		if s == country {
			return true
		}
	}
	return false
}

func (v tableView) VisibleCount() int {
	n := 0
	for _, c := range v.Columns {
		if c.Visible {
			n++
		}
	}
	return n
}
