package model

import "time"

// AuthenticationLog 对应 authentication_log 表（由外部登录日志子系统写入，本服务只读）
// authenticatable_type / authenticatable_id 为多态归属引用，要么同时存在，要么同时为空
type AuthenticationLog struct {
	ID                  int64      `gorm:"primaryKey" json:"id"`
	AuthenticatableType *string    `gorm:"column:authenticatable_type;size:255;index:idx_authlog_owner" json:"authenticatable_type"`
	AuthenticatableID   *int64     `gorm:"column:authenticatable_id;index:idx_authlog_owner" json:"authenticatable_id"`
	IPAddress           *string    `gorm:"column:ip_address;size:45" json:"ip_address"`
	UserAgent           string     `gorm:"column:user_agent;type:text" json:"user_agent"`
	LoginAt             *time.Time `gorm:"column:login_at;index" json:"login_at"`
	LoginSuccessful     bool       `gorm:"column:login_successful;not null;default:false" json:"login_successful"`
	LogoutAt            *time.Time `gorm:"column:logout_at" json:"logout_at"`
	ClearedByUser       bool       `gorm:"column:cleared_by_user;not null;default:false" json:"cleared_by_user"`
	Location            *string    `gorm:"column:location;type:text" json:"location"`
	Country             *string    `gorm:"column:country;size:100" json:"country"`
	City                *string    `gorm:"column:city;size:100" json:"city"`
	StateName           *string    `gorm:"column:state_name;size:100" json:"state_name"`
	PostalCode          *string    `gorm:"column:postal_code;size:20" json:"postal_code"`
	Timezone            *string    `gorm:"column:timezone;size:64" json:"timezone"`
	Currency            *string    `gorm:"column:currency;size:16" json:"currency"`
}

func (AuthenticationLog) TableName() string { return "authentication_log" }

// OwnerRef 多态归属 (type, id)
type OwnerRef struct {
	Type string
	ID   int64
}

// Owner 只有 type 与 id 都非空时才视为存在
func (l AuthenticationLog) Owner() (OwnerRef, bool) {
	if l.AuthenticatableType == nil || *l.AuthenticatableType == "" || l.AuthenticatableID == nil {
		return OwnerRef{}, false
	}
	return OwnerRef{Type: *l.AuthenticatableType, ID: *l.AuthenticatableID}, true
}

// AuthLogSearchableColumns 支持不区分大小写子串搜索的列（location 仅展示）
var AuthLogSearchableColumns = []string{
	"ip_address", "country", "city", "state_name", "postal_code", "user_agent", "timezone", "currency",
}

// AuthLogSortableColumns 允许排序的列
var AuthLogSortableColumns = map[string]struct{}{
	"authenticatable_id": {}, "ip_address": {}, "country": {}, "city": {}, "state_name": {},
	"postal_code": {}, "user_agent": {}, "timezone": {}, "currency": {},
	"login_at": {}, "login_successful": {}, "logout_at": {}, "cleared_by_user": {},
}

// IsAuthLogSearchable 列是否可搜索
func IsAuthLogSearchable(col string) bool {
	for _, c := range AuthLogSearchableColumns {
		if c == col {
			return true
		}
	}
	return false
}
