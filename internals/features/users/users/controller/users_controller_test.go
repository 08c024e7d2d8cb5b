package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"crowdfund_backend/internals/constants"
	"crowdfund_backend/internals/features/users/users/model"
	route "crowdfund_backend/internals/features/users/users/routes"
	helper "crowdfund_backend/internals/helpers"
	"crowdfund_backend/internals/testutil"
)

type envelope struct {
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination helper.Meta     `json:"pagination"`
}

type fixture struct {
	app   *fiber.App
	db    *gorm.DB
	user  *model.UserModel
	admin *model.UserModel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:    db,
		user:  testutil.SeedUser(t, db, constants.RoleUser),
		admin: testutil.SeedUser(t, db, constants.RoleAdmin),
	}

	as := func(u *model.UserModel) fiber.Handler {
		return func(c *fiber.Ctx) error {
			c.Locals(helper.LocUserID, u.ID.String())
			c.Locals(helper.LocUserRole, u.Role)
			return c.Next()
		}
	}

	f.app = fiber.New()
	route.UserUserRoutes(f.app.Group("/api/u", as(f.user)), db)
	route.UserAdminRoutes(f.app.Group("/api/a", as(f.admin)), db)
	return f
}

func (f *fixture) call(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestGetAndUpdateMe(t *testing.T) {
	f := newFixture(t)

	status, env := f.call(t, http.MethodGet, "/api/u/users/me", nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var me struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, f.user.ID.String(), me.ID)
	assert.Equal(t, constants.RoleUser, me.Role)

	status, _ = f.call(t, http.MethodPatch, "/api/u/users/me", map[string]any{"user_name": "  renamed  "})
	require.Equal(t, http.StatusOK, status)

	var got model.UserModel
	require.NoError(t, f.db.Where("id = ?", f.user.ID).Take(&got).Error)
	assert.Equal(t, "renamed", got.UserName)

	status, _ = f.call(t, http.MethodPatch, "/api/u/users/me", map[string]any{"user_name": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestAdminListUsersPaged(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		testutil.SeedUser(t, f.db, constants.RoleUser)
	}

	status, env := f.call(t, http.MethodGet, "/api/a/users?per_page=2&page=1", nil)
	require.Equal(t, http.StatusOK, status, env.Message)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	assert.Len(t, rows, 2)
	assert.Equal(t, int64(5), env.Pagination.Total)
	assert.Equal(t, 3, env.Pagination.TotalPages)
	assert.True(t, env.Pagination.HasNext)
	assert.False(t, env.Pagination.HasPrev)

	status, env = f.call(t, http.MethodGet, "/api/a/users?q="+f.user.Email, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), env.Pagination.Total)
}

func TestAdminSetActiveAndRole(t *testing.T) {
	f := newFixture(t)
	path := "/api/a/users/" + f.user.ID.String()

	status, env := f.call(t, http.MethodPatch, path+"/active", map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = f.call(t, http.MethodPatch, path+"/role", map[string]any{"role": constants.RoleAdmin})
	require.Equal(t, http.StatusOK, status, env.Message)

	var got model.UserModel
	require.NoError(t, f.db.Where("id = ?", f.user.ID).Take(&got).Error)
	assert.False(t, got.IsActive)
	assert.Equal(t, constants.RoleAdmin, got.Role)

	status, _ = f.call(t, http.MethodPatch, path+"/role", map[string]any{"role": "root"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = f.call(t, http.MethodPatch, path+"/active", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestAdminCannotChangeSelfOrUnknown(t *testing.T) {
	f := newFixture(t)

	status, _ := f.call(t, http.MethodPatch, "/api/a/users/"+f.admin.ID.String()+"/active", map[string]any{"is_active": false})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = f.call(t, http.MethodPatch, "/api/a/users/00000000-0000-0000-0000-000000000001/role", map[string]any{"role": "user"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = f.call(t, http.MethodPatch, "/api/a/users/not-a-uuid/role", map[string]any{"role": "user"})
	assert.Equal(t, http.StatusBadRequest, status)
}
