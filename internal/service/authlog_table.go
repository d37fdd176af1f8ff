package service

import (
	"strconv"
	"time"
	"unicode/utf8"

	"go-authlog/internal/domain/model"
	"go-authlog/internal/panel"
)

// 列类型决定单元格的渲染方式
const (
	KindText     = "text"
	KindDateTime = "datetime"
	KindBoolean  = "boolean"
	KindOwner    = "owner"
)

// OwnerColumn 归属方列的 key（按 authenticatable_id 排序）
const OwnerColumn = "authenticatable_id"

const (
	dateTimeLayout = "Jan 2, 2006 15:04:05"
	truncSuffix    = "..."
	placeholder    = "—" // em dash
)

type columnDef struct {
	Key             string
	LabelKey        string
	Kind            string
	Sortable        bool
	Searchable      bool
	HiddenByDefault bool // 默认隐藏但可切换；false 表示始终可见
}

// authLogColumns 表格列定义，顺序即展示顺序
var authLogColumns = []columnDef{
	{Key: OwnerColumn, LabelKey: "column.authenticatable", Kind: KindOwner, Sortable: true},
	{Key: "ip_address", LabelKey: "column.ip_address", Kind: KindText, Sortable: true, Searchable: true},
	{Key: "country", LabelKey: "column.country", Kind: KindText, Sortable: true, Searchable: true},
	{Key: "city", LabelKey: "column.city", Kind: KindText, Sortable: true, Searchable: true, HiddenByDefault: true},
	{Key: "state_name", LabelKey: "column.state_name", Kind: KindText, Sortable: true, Searchable: true, HiddenByDefault: true},
	{Key: "postal_code", LabelKey: "column.postal_code", Kind: KindText, Sortable: true, Searchable: true, HiddenByDefault: true},
	{Key: "user_agent", LabelKey: "column.user_agent", Kind: KindText, Sortable: true, Searchable: true},
	{Key: "timezone", LabelKey: "column.timezone", Kind: KindText, Sortable: true, Searchable: true, HiddenByDefault: true},
	{Key: "currency", LabelKey: "column.currency", Kind: KindText, Sortable: true, Searchable: true, HiddenByDefault: true},
	{Key: "location", LabelKey: "column.location", Kind: KindText, HiddenByDefault: true},
	{Key: "login_at", LabelKey: "column.login_at", Kind: KindDateTime, Sortable: true},
	{Key: "login_successful", LabelKey: "column.login_successful", Kind: KindBoolean, Sortable: true},
	{Key: "logout_at", LabelKey: "column.logout_at", Kind: KindDateTime, Sortable: true},
	{Key: "cleared_by_user", LabelKey: "column.cleared_by_user", Kind: KindBoolean, Sortable: true, HiddenByDefault: true},
}

func findColumn(key string) (columnDef, bool) {
	for _, c := range authLogColumns {
		if c.Key == key {
			return c, true
		}
	}
	return columnDef{}, false
}

// visibleColumns 始终可见列 + 请求中切换打开的可隐藏列；未知或不可切换的 key 忽略
func visibleColumns(toggled []string) []columnDef {
	on := make(map[string]struct{}, len(toggled))
	for _, k := range toggled {
		on[k] = struct{}{}
	}
	out := make([]columnDef, 0, len(authLogColumns))
	for _, c := range authLogColumns {
		if !c.HiddenByDefault {
			out = append(out, c)
			continue
		}
		if _, ok := on[c.Key]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Truncate 超过 limit 个字符时截断并追加省略号
func Truncate(s string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	r := []rune(s)
	return string(r[:limit]) + truncSuffix, true
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// textValue 文本/时间/布尔列取值；归属方列单独处理
func textValue(l model.AuthenticationLog, key string) *string {
	switch key {
	case "ip_address":
		return l.IPAddress
	case "country":
		return l.Country
	case "city":
		return l.City
	case "state_name":
		return l.StateName
	case "postal_code":
		return l.PostalCode
	case "user_agent":
		return &l.UserAgent
	case "timezone":
		return l.Timezone
	case "currency":
		return l.Currency
	case "location":
		return l.Location
	}
	return nil
}

func (s *AuthLogService) buildCell(l model.AuthenticationLog, c columnDef, owners ownerLinks) Cell {
	cell := Cell{Column: c.Key}
	switch c.Kind {
	case KindOwner:
		ref, ok := l.Owner()
		if !ok {
			cell.Text, cell.Placeholder = placeholder, true
			return cell
		}
		if link, ok := owners[ref]; ok {
			lk := link
			cell.Link = &lk
			cell.Text = link.Label
			return cell
		}
		cell.Text = strconv.FormatInt(ref.ID, 10)
	case KindDateTime:
		var t *time.Time
		if c.Key == "login_at" {
			t = l.LoginAt
		} else {
			t = l.LogoutAt
		}
		if t != nil {
			cell.Text = t.In(s.opts.Location).Format(dateTimeLayout)
		}
	case KindBoolean:
		v := l.LoginSuccessful
		if c.Key == "cleared_by_user" {
			v = l.ClearedByUser
		}
		cell.Bool = &v
	default:
		full := strOrEmpty(textValue(l, c.Key))
		if c.Key == "user_agent" {
			shown, cut := Truncate(full, s.opts.UserAgentLimit)
			cell.Text, cell.Truncated = shown, cut
			if cut {
				cell.Tooltip = full
			}
			return cell
		}
		cell.Text = full
	}
	return cell
}

type ownerLinks map[model.OwnerRef]panel.Link
