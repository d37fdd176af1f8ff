package dao

import (
	"context"

	"gorm.io/gorm"
)

// OwnerDAO 按登记表批量读取归属方展示名（表名与列名来自启动配置）
type OwnerDAO struct{ DB *gorm.DB }

func NewOwnerDAO(db *gorm.DB) *OwnerDAO { return &OwnerDAO{DB: db} }

type ownerLabelRow struct {
	ID    int64
	Label string
}

// Labels 返回 id -> label；不存在的 id 不出现在结果中
func (d *OwnerDAO) Labels(ctx context.Context, table, labelColumn string, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []ownerLabelRow
	err := d.DB.WithContext(ctx).Table(table).
		Select("id, "+labelColumn+" AS label").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = r.Label
	}
	return out, nil
}

// Exists 归属方记录是否存在
func (d *OwnerDAO) Exists(ctx context.Context, table string, id int64) (bool, error) {
	var n int64
	if err := d.DB.WithContext(ctx).Table(table).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
