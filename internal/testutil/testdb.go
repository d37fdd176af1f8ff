// Package testutil 测试共用的内存数据库与数据构造工具，仅供 _test.go 引用。
package testutil

import (
	"testing"
	"time"

	"go-authlog/internal/domain/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// UserType 测试中登记的默认归属方类型
const UserType = `App\Models\User`

// NewDB 每次返回一个独立的内存 sqlite，已建好 authentication_log 与 admin_user
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: 每个连接一份库，固定单连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.AuthenticationLog{}, &model.AdminUser{}))
	return db
}

func Str(s string) *string { return &s }

func Int64(v int64) *int64 { return &v }

// At UTC 时间，格式 2006-01-02 15:04:05
func At(s string) *time.Time {
	t, err := time.ParseInLocation(time.DateTime, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return &t
}

// Owned 设置多态归属
func Owned(l model.AuthenticationLog, typ string, id int64) model.AuthenticationLog {
	l.AuthenticatableType = &typ
	l.AuthenticatableID = &id
	return l
}

func InsertLogs(t testing.TB, db *gorm.DB, logs ...model.AuthenticationLog) []model.AuthenticationLog {
	t.Helper()
	for i := range logs {
		require.NoError(t, db.Create(&logs[i]).Error)
	}
	return logs
}

func InsertUsers(t testing.TB, db *gorm.DB, users ...model.AdminUser) {
	t.Helper()
	for i := range users {
		require.NoError(t, db.Create(&users[i]).Error)
	}
}
