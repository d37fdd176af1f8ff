package dao

import (
	"context"
	"testing"

	"go-authlog/internal/domain/model"
	"go-authlog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerDAO_Labels(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.InsertUsers(t, db, model.AdminUser{ID: 1, Username: "alice"}, model.AdminUser{ID: 2, Username: "bob"})
	d := NewOwnerDAO(db)

	got, err := d.Labels(context.Background(), "admin_user", "username", []int64{1, 2, 99})
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{1: "alice", 2: "bob"}, got)

	got, err = d.Labels(context.Background(), "admin_user", "username", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOwnerDAO_Exists(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.InsertUsers(t, db, model.AdminUser{ID: 7, Username: "carol"})
	d := NewOwnerDAO(db)

	ok, err := d.Exists(context.Background(), "admin_user", 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.Exists(context.Background(), "admin_user", 8)
	require.NoError(t, err)
	assert.False(t, ok)
}
