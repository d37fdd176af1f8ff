package panel

import (
	"testing"

	"go-authlog/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	assert.Equal(t, "users", Slug(`App\Models\User`))
	assert.Equal(t, "categories", Slug("app.models.Category"))
	assert.Equal(t, "people", Slug("Person"))
	assert.Equal(t, "", Slug(`App\Models\`))
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry([]config.Owner{
		{Type: `App\Models\User`, Table: "admin_user", LabelColumn: "username"},
		{Type: `App\Models\Member`, Table: "member", LabelColumn: "name", Slug: "Customers"},
	})
	require.NoError(t, err)

	res, ok := r.BySlug("customers")
	require.True(t, ok)
	assert.Equal(t, `App\Models\Member`, res.Type)
	_, ok = r.Lookup(`App\Models\User`)
	assert.True(t, ok)

	slugs := []string{}
	for _, res := range r.Resources() {
		slugs = append(slugs, res.Slug)
	}
	assert.Equal(t, []string{"customers", "users"}, slugs)

	_, err = NewRegistry([]config.Owner{{Type: "User"}, {Type: "User"}})
	assert.Error(t, err)
	_, err = NewRegistry([]config.Owner{{Type: "a.User"}, {Type: "b.User"}})
	assert.Error(t, err)
}

func TestResolveOwnerLink(t *testing.T) {
	r, err := NewRegistry([]config.Owner{{Type: `App\Models\User`, Table: "admin_user", LabelColumn: "username"}})
	require.NoError(t, err)

	admin := Panel{ID: "admin", Path: "/admin"}
	link, ok := r.ResolveOwnerLink(admin.Context("ignored"), `App\Models\User`, 42, "alice")
	require.True(t, ok)
	assert.Equal(t, Link{Path: "users/edit/42", URL: "/admin/users/edit/42", Label: "alice"}, link)

	tenant := Panel{ID: "app", Path: "/app", Tenancy: true}
	link, ok = r.ResolveOwnerLink(tenant.Context("acme"), `App\Models\User`, 42, "alice")
	require.True(t, ok)
	assert.Equal(t, "/app/acme/users/edit/42", link.URL)

	_, ok = r.ResolveOwnerLink(admin.Context(""), `App\Models\Team`, 1, "x")
	assert.False(t, ok)
}

func TestFromConfig(t *testing.T) {
	ps := FromConfig([]config.Panel{{ID: "admin", Path: "/admin"}, {ID: "app", Path: "/app", Tenancy: true}})
	require.Len(t, ps, 2)
	assert.True(t, ps[1].Tenancy)
}
