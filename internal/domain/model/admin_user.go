package model

// AdminUser 对应 admin_user 表，默认登记的日志归属方 (label 列为 username)
type AdminUser struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Username string `gorm:"size:64;uniqueIndex:uk_username" json:"username"`
	Nickname string `gorm:"size:64" json:"nickname"`
	Status   int8   `gorm:"column:status" json:"status"`
}

func (AdminUser) TableName() string { return "admin_user" }
