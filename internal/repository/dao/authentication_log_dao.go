package dao

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go-authlog/internal/domain/model"

	"gorm.io/gorm"
)

// AuthenticationLogDAO 只读访问 authentication_log 表
type AuthenticationLogDAO struct{ DB *gorm.DB }

func NewAuthenticationLogDAO(db *gorm.DB) *AuthenticationLogDAO {
	return &AuthenticationLogDAO{DB: db}
}

// Order 单个排序项，Column 必须在 model.AuthLogSortableColumns 内
type Order struct {
	Column string
	Desc   bool
}

// AuthLogQuery 列表查询条件，全部可选，按 AND 组合
type AuthLogQuery struct {
	Owner        *model.OwnerRef
	Search       string            // 全局搜索：可搜索列之间 OR
	ColumnSearch map[string]string // 单列搜索：列之间 AND
	Countries    []string
	OnlySuccess  bool
	OnlyCleared  bool
	LoginFrom    *time.Time // 含
	LoginBefore  *time.Time // 不含
	Orders       []Order
	Page, Limit  int
}

func (d *AuthenticationLogDAO) List(ctx context.Context, q AuthLogQuery) ([]model.AuthenticationLog, int64, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 10
	}
	if q.Page > math.MaxInt32/q.Limit {
		return nil, 0, fmt.Errorf("page %d out of range", q.Page)
	}
	tx := d.DB.WithContext(ctx).Model(&model.AuthenticationLog{})
	tx = applyAuthLogFilters(tx, q)
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	for _, o := range q.Orders {
		if _, ok := model.AuthLogSortableColumns[o.Column]; !ok {
			return nil, 0, fmt.Errorf("unsortable column %q", o.Column)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		tx = tx.Order(o.Column + " " + dir)
	}
	tx = tx.Order("id DESC")
	var list []model.AuthenticationLog
	if err := tx.Limit(q.Limit).Offset((q.Page - 1) * q.Limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Countries 全表去重后的非空国家，不受归属方限制
func (d *AuthenticationLogDAO) Countries(ctx context.Context) ([]string, error) {
	var out []string
	err := d.DB.WithContext(ctx).Model(&model.AuthenticationLog{}).
		Where("country IS NOT NULL AND country <> ''").
		Distinct("country").
		Order("country ASC").
		Pluck("country", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applyAuthLogFilters(tx *gorm.DB, q AuthLogQuery) *gorm.DB {
	if q.Owner != nil {
		tx = tx.Where("authenticatable_type = ? AND authenticatable_id = ?", q.Owner.Type, q.Owner.ID)
	}
	if kw := strings.TrimSpace(q.Search); kw != "" {
		pattern := likePattern(kw)
		parts := make([]string, 0, len(model.AuthLogSearchableColumns))
		args := make([]interface{}, 0, len(model.AuthLogSearchableColumns))
		for _, col := range model.AuthLogSearchableColumns {
			parts = append(parts, likeClause(col))
			args = append(args, pattern)
		}
		tx = tx.Where("("+strings.Join(parts, " OR ")+")", args...)
	}
	for col, kw := range q.ColumnSearch {
		kw = strings.TrimSpace(kw)
		if kw == "" || !model.IsAuthLogSearchable(col) {
			continue
		}
		tx = tx.Where(likeClause(col), likePattern(kw))
	}
	if len(q.Countries) > 0 {
		tx = tx.Where("country IN ?", q.Countries)
	}
	if q.OnlySuccess {
		tx = tx.Where("login_successful = ?", true)
	}
	if q.OnlyCleared {
		tx = tx.Where("cleared_by_user = ?", true)
	}
	if q.LoginFrom != nil {
		tx = tx.Where("login_at >= ?", *q.LoginFrom)
	}
	if q.LoginBefore != nil {
		tx = tx.Where("login_at < ?", *q.LoginBefore)
	}
	return tx
}

// LOWER + LIKE 兼容 postgres 与 sqlite（ILIKE 仅 postgres）
func likeClause(col string) string {
	return "LOWER(" + col + `) LIKE ? ESCAPE '\'`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(kw string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(kw)) + "%"
}
