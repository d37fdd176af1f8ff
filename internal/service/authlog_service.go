package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go-authlog/internal/config"
	"go-authlog/internal/domain/model"
	"go-authlog/internal/i18n"
	"go-authlog/internal/logging"
	"go-authlog/internal/metrics"
	"go-authlog/internal/panel"
	"go-authlog/internal/repository/dao"

	"go.uber.org/zap"
)

// maxOffset 分页偏移上限，防止 (page-1)*per_page 溢出
const maxOffset = math.MaxInt32

var (
	ErrOwnerNotFound  = errors.New("owner not found")
	ErrReadOnly       = errors.New("authentication log is read-only")
	ErrInvalidRequest = errors.New("invalid request")
)

// LogStore 日志查询协作方（dao.AuthenticationLogDAO 实现）
type LogStore interface {
	List(ctx context.Context, q dao.AuthLogQuery) ([]model.AuthenticationLog, int64, error)
	Countries(ctx context.Context) ([]string, error)
}

// OwnerStore 归属方查询协作方（dao.OwnerDAO 实现）
type OwnerStore interface {
	Labels(ctx context.Context, table, labelColumn string, ids []int64) (map[int64]string, error)
	Exists(ctx context.Context, table string, id int64) (bool, error)
}

type AuthLogOptions struct {
	DefaultSort    dao.Order
	UserSortFirst  bool
	PerPageOptions []int
	PerPage        int
	UserAgentLimit int
	Location       *time.Location
}

// OptionsFromConfig 解析时区等运行期参数
func OptionsFromConfig(c config.AuthLog) (AuthLogOptions, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return AuthLogOptions{}, fmt.Errorf("authlog.timezone: %w", err)
	}
	return AuthLogOptions{
		DefaultSort:    dao.Order{Column: c.Sort.Column, Desc: c.Sort.Direction == "desc"},
		UserSortFirst:  c.Sort.UserFirst,
		PerPageOptions: c.PerPageOptions,
		PerPage:        c.PerPage,
		UserAgentLimit: c.UserAgentLimit,
		Location:       loc,
	}, nil
}

// AuthLogService 认证日志关系视图：只读的分页 / 排序 / 筛选 / 搜索表格
type AuthLogService struct {
	Logs     LogStore
	Owners   OwnerStore
	Registry *panel.Registry
	Trans    *i18n.Translator
	Logger   *logging.Logger
	opts     AuthLogOptions
}

func NewAuthLogService(logs LogStore, owners OwnerStore, reg *panel.Registry, tr *i18n.Translator, l *logging.Logger, opts AuthLogOptions) *AuthLogService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.UserAgentLimit <= 0 {
		opts.UserAgentLimit = 50
	}
	if len(opts.PerPageOptions) == 0 {
		opts.PerPageOptions = []int{5, 10, 25, 50}
	}
	if opts.PerPage <= 0 {
		opts.PerPage = opts.PerPageOptions[0]
	}
	if opts.DefaultSort.Column == "" {
		opts.DefaultSort = dao.Order{Column: "login_at", Desc: true}
	}
	return &AuthLogService{Logs: logs, Owners: owners, Registry: reg, Trans: tr, Logger: l, opts: opts}
}

// ===== request / view types =====

type FilterInput struct {
	Countries       []string
	LoginSuccessful bool
	LoginFrom       string // YYYY-MM-DD
	LoginUntil      string // YYYY-MM-DD
	ClearedByUser   bool
}

type TableRequest struct {
	Panel        panel.Context
	Owner        *model.OwnerRef // nil 表示全局列表
	Locale       string
	Page         int
	PerPage      int
	Sort         string
	Direction    string
	Search       string
	ColumnSearch map[string]string
	Toggled      []string
	Filters      FilterInput
}

type ColumnView struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Kind       string `json:"kind"`
	Sortable   bool   `json:"sortable"`
	Searchable bool   `json:"searchable"`
	Toggleable bool   `json:"toggleable"`
	Visible    bool   `json:"visible"`
}

type Cell struct {
	Column      string      `json:"column"`
	Text        string      `json:"text"`
	Placeholder bool        `json:"placeholder,omitempty"`
	Link        *panel.Link `json:"link,omitempty"`
	Tooltip     string      `json:"tooltip,omitempty"`
	Truncated   bool        `json:"truncated,omitempty"`
	Bool        *bool       `json:"bool,omitempty"`
}

type Row struct {
	ID    int64  `json:"id"`
	Cells []Cell `json:"cells"`
}

type CountryFilter struct {
	Options  []string `json:"options"`
	Selected []string `json:"selected"`
}

type FilterView struct {
	Country         *CountryFilter `json:"country,omitempty"` // 无任何国家数据时不展示
	LoginSuccessful bool           `json:"login_successful"`
	LoginFrom       string         `json:"login_from"`
	LoginUntil      string         `json:"login_until"`
	ClearedByUser   bool           `json:"cleared_by_user"`
	Active          int            `json:"active"`
}

type SortView struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

type Pagination struct {
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	LastPage int   `json:"last_page"`
	Total    int64 `json:"total"`
	From     int   `json:"from"`
	To       int   `json:"to"`
	Options  []int `json:"options"`
}

type Actions struct {
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

type TablePage struct {
	Heading      string            `json:"heading"`
	Locale       string            `json:"locale"`
	Panel        panel.Context     `json:"-"`
	Owner        *model.OwnerRef   `json:"owner,omitempty"`
	Columns      []ColumnView      `json:"columns"`
	Rows         []Row             `json:"rows"`
	Filters      FilterView        `json:"filters"`
	Sort         SortView          `json:"sort"`
	Search       string            `json:"search"`
	ColumnSearch map[string]string `json:"column_search"`
	Pagination   Pagination        `json:"pagination"`
	Actions      Actions           `json:"actions"`
	Labels       map[string]string `json:"labels"`
}

// ===== read-only contract =====

func (s *AuthLogService) CanCreate() bool { return false }

func (s *AuthLogService) CanEdit(_ model.AuthenticationLog) bool { return false }

func (s *AuthLogService) CanDelete(_ model.AuthenticationLog) bool { return false }

// RejectMutation 任何写操作一律拒绝，与调用者权限无关
func (s *AuthLogService) RejectMutation(ctx context.Context, action string) error {
	metrics.AuthLogMutationRejected.WithLabelValues(action).Inc()
	logging.FromContext(ctx, s.Logger).Info("authlog_mutation_rejected", zap.String("action", action))
	return ErrReadOnly
}

// ResolveOwner 关系页入口：按资源 slug + id 找到归属方
func (s *AuthLogService) ResolveOwner(ctx context.Context, slug string, id int64) (*model.OwnerRef, error) {
	res, ok := s.Registry.BySlug(slug)
	if !ok || id <= 0 {
		return nil, ErrOwnerNotFound
	}
	exists, err := s.Owners.Exists(ctx, res.Table, id)
	if err != nil {
		return nil, fmt.Errorf("owner lookup: %w", err)
	}
	if !exists {
		return nil, ErrOwnerNotFound
	}
	return &model.OwnerRef{Type: res.Type, ID: id}, nil
}

// Table 生成一页表格；查询错误原样（%w）返回
func (s *AuthLogService) Table(ctx context.Context, req TableRequest) (*TablePage, error) {
	start := time.Now()
	scope := "global"
	if req.Owner != nil {
		scope = "owner"
	}
	defer func() { metrics.AuthLogRenderDuration.WithLabelValues(scope).Observe(time.Since(start).Seconds()) }()

	orders, sortView, err := s.orders(req.Sort, req.Direction)
	if err != nil {
		return nil, err
	}
	from, before, err := s.dateBounds(req.Filters.LoginFrom, req.Filters.LoginUntil)
	if err != nil {
		return nil, err
	}
	countries, err := s.Logs.Countries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	filters := FilterView{
		LoginSuccessful: req.Filters.LoginSuccessful,
		LoginFrom:       strings.TrimSpace(req.Filters.LoginFrom),
		LoginUntil:      strings.TrimSpace(req.Filters.LoginUntil),
		ClearedByUser:   req.Filters.ClearedByUser,
	}
	var selected []string
	if len(countries) > 0 {
		selected = intersect(req.Filters.Countries, countries)
		filters.Country = &CountryFilter{Options: countries, Selected: selected}
	}
	filters.Active = countActive(filters)

	page, perPage := req.Page, s.perPage(req.PerPage)
	if page <= 0 {
		page = 1
	}
	if page > maxOffset/perPage {
		return nil, fmt.Errorf("%w: page %d out of range", ErrInvalidRequest, page)
	}
	colSearch := cleanColumnSearch(req.ColumnSearch)
	q := dao.AuthLogQuery{
		Owner:        req.Owner,
		Search:       strings.TrimSpace(req.Search),
		ColumnSearch: colSearch,
		Countries:    selected,
		OnlySuccess:  req.Filters.LoginSuccessful,
		OnlyCleared:  req.Filters.ClearedByUser,
		LoginFrom:    from,
		LoginBefore:  before,
		Orders:       orders,
		Page:         page,
		Limit:        perPage,
	}
	list, total, err := s.Logs.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list authentication logs: %w", err)
	}
	metrics.AuthLogRows.Observe(float64(len(list)))

	cols := visibleColumns(req.Toggled)
	owners, err := s.ownerLinks(ctx, req.Panel, list)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(list))
	for _, l := range list {
		r := Row{ID: l.ID, Cells: make([]Cell, 0, len(cols))}
		for _, c := range cols {
			r.Cells = append(r.Cells, s.buildCell(l, c, owners))
		}
		rows = append(rows, r)
	}

	locale := s.locale(ctx, req.Locale)
	return &TablePage{
		Heading:      s.Trans.T(locale, "table.heading"),
		Locale:       locale,
		Panel:        req.Panel,
		Owner:        req.Owner,
		Columns:      s.columnViews(locale, cols),
		Rows:         rows,
		Filters:      filters,
		Sort:         sortView,
		Search:       q.Search,
		ColumnSearch: colSearch,
		Pagination:   paginate(page, perPage, total, len(rows), s.opts.PerPageOptions),
		Actions:      Actions{Create: s.CanCreate(), Edit: s.CanEdit(model.AuthenticationLog{}), Delete: s.CanDelete(model.AuthenticationLog{})},
		Labels:       s.labels(locale),
	}, nil
}

// orders 默认排序先于用户排序（user_first 时反转），同列只保留用户指定的方向
func (s *AuthLogService) orders(col, dir string) ([]dao.Order, SortView, error) {
	def := s.opts.DefaultSort
	col = strings.TrimSpace(col)
	if col == "" {
		return []dao.Order{def}, SortView{}, nil
	}
	c, ok := findColumn(col)
	if !ok || !c.Sortable {
		return nil, SortView{}, fmt.Errorf("%w: column %q is not sortable", ErrInvalidRequest, col)
	}
	dir = strings.ToLower(strings.TrimSpace(dir))
	switch dir {
	case "":
		dir = "asc"
	case "asc", "desc":
	default:
		return nil, SortView{}, fmt.Errorf("%w: sort direction %q", ErrInvalidRequest, dir)
	}
	user := dao.Order{Column: col, Desc: dir == "desc"}
	view := SortView{Column: col, Direction: dir}
	if user.Column == def.Column {
		return []dao.Order{user}, view, nil
	}
	if s.opts.UserSortFirst {
		return []dao.Order{user, def}, view, nil
	}
	return []dao.Order{def, user}, view, nil
}

// dateBounds 日期级闭区间 [from, until] 转为 [from 00:00, until+1 00:00)
func (s *AuthLogService) dateBounds(fromStr, untilStr string) (*time.Time, *time.Time, error) {
	var from, before *time.Time
	if v := strings.TrimSpace(fromStr); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, s.opts.Location)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: login_from %q", ErrInvalidRequest, v)
		}
		from = &t
	}
	if v := strings.TrimSpace(untilStr); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, s.opts.Location)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: login_until %q", ErrInvalidRequest, v)
		}
		next := t.AddDate(0, 0, 1)
		before = &next
	}
	return from, before, nil
}

// ownerLinks 每种归属类型一次批量查询；未登记类型或记录缺失时降级为原始 id
func (s *AuthLogService) ownerLinks(ctx context.Context, pc panel.Context, list []model.AuthenticationLog) (ownerLinks, error) {
	byType := map[string][]int64{}
	for _, l := range list {
		if ref, ok := l.Owner(); ok {
			byType[ref.Type] = append(byType[ref.Type], ref.ID)
		}
	}
	out := make(ownerLinks, len(list))
	lg := logging.FromContext(ctx, s.Logger)
	types := make([]string, 0, len(byType))
	for typ := range byType {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		ids := uniqueIDs(byType[typ])
		res, ok := s.Registry.Lookup(typ)
		if !ok {
			metrics.AuthLogOwnerUnresolved.WithLabelValues("unregistered_type").Add(float64(len(ids)))
			lg.Debug("authlog_owner_unresolved", zap.String("type", typ), zap.Int("ids", len(ids)))
			continue
		}
		labels, err := s.Owners.Labels(ctx, res.Table, res.LabelColumn, ids)
		if err != nil {
			return nil, fmt.Errorf("owner labels %s: %w", res.Table, err)
		}
		for _, id := range ids {
			label, found := labels[id]
			if !found {
				metrics.AuthLogOwnerUnresolved.WithLabelValues("missing_record").Inc()
				lg.Debug("authlog_owner_missing", zap.String("type", typ), zap.Int64("id", id))
				continue
			}
			if link, ok := s.Registry.ResolveOwnerLink(pc, typ, id, label); ok {
				out[model.OwnerRef{Type: typ, ID: id}] = link
			}
		}
	}
	return out, nil
}

func (s *AuthLogService) perPage(n int) int {
	for _, o := range s.opts.PerPageOptions {
		if o == n {
			return n
		}
	}
	return s.opts.PerPage
}

func (s *AuthLogService) locale(ctx context.Context, explicit string) string {
	if explicit != "" {
		return i18n.Normalize(explicit)
	}
	if l, ok := i18n.LocaleFromContext(ctx); ok {
		return l
	}
	return s.Trans.Default()
}

func (s *AuthLogService) columnViews(locale string, visible []columnDef) []ColumnView {
	on := make(map[string]struct{}, len(visible))
	for _, c := range visible {
		on[c.Key] = struct{}{}
	}
	out := make([]ColumnView, 0, len(authLogColumns))
	for _, c := range authLogColumns {
		_, vis := on[c.Key]
		out = append(out, ColumnView{
			Key: c.Key, Label: s.Trans.T(locale, c.LabelKey), Kind: c.Kind,
			Sortable: c.Sortable, Searchable: c.Searchable, Toggleable: c.HiddenByDefault, Visible: vis,
		})
	}
	return out
}

var uiLabelKeys = []string{
	"filter.country", "filter.login_successful", "filter.login_at", "filter.login_from", "filter.login_until",
	"filter.cleared_by_user", "filter.apply", "filter.reset", "table.search", "table.columns", "table.empty",
	"table.per_page", "table.previous", "table.next",
}

func (s *AuthLogService) labels(locale string) map[string]string {
	m := make(map[string]string, len(uiLabelKeys))
	for _, k := range uiLabelKeys {
		m[k] = s.Trans.T(locale, k)
	}
	return m
}

// PaginationText 例如 "Showing 1 to 10 of 42 results"
func (s *AuthLogService) PaginationText(locale string, p Pagination) string {
	return s.Trans.T(locale, "table.pagination", fmt.Sprint(p.From), fmt.Sprint(p.To), fmt.Sprint(p.Total))
}

func paginate(page, perPage int, total int64, n int, options []int) Pagination {
	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}
	p := Pagination{Page: page, PerPage: perPage, LastPage: last, Total: total, Options: options}
	if n > 0 {
		p.From = (page-1)*perPage + 1
		p.To = p.From + n - 1
	}
	return p
}

func countActive(f FilterView) int {
	n := 0
	if f.Country != nil && len(f.Country.Selected) > 0 {
		n++
	}
	if f.LoginSuccessful {
		n++
	}
	if f.LoginFrom != "" || f.LoginUntil != "" {
		n++
	}
	if f.ClearedByUser {
		n++
	}
	return n
}

// intersect 保留出现在可选项中的选择，去重
func intersect(selected, options []string) []string {
	allowed := make(map[string]struct{}, len(options))
	for _, o := range options {
		allowed[o] = struct{}{}
	}
	out := make([]string, 0, len(selected))
	seen := map[string]struct{}{}
	for _, v := range selected {
		if _, ok := allowed[v]; !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func cleanColumnSearch(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || !model.IsAuthLogSearchable(k) {
			continue
		}
		out[k] = v
	}
	return out
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
