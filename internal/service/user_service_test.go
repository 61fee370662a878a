package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aku-labs/academy-api/internal/models"
)

type mockUserStore struct {
	users   map[string]models.User
	revoked map[string]int
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: map[string]models.User{}, revoked: map[string]int{}}
}

func (m *mockUserStore) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(u.FullName), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *mockUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (m *mockUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserStore) Create(_ context.Context, user *models.User) error {
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserStore) Update(_ context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserStore) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserStore) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	m.revoked[userID]++
	return nil
}

func TestUserServiceCreate(t *testing.T) {
	store := newMockUserStore()
	svc := NewUserService(store, nil, nil)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "Maria@Academy.co",
		Password: "super-secret",
		FullName: "Maria Gomez",
		Role:     "staff",
	})
	require.NoError(t, err)
	assert.Equal(t, "maria@academy.co", user.Email)
	assert.Equal(t, models.RoleStaff, user.Role)
	assert.True(t, user.Active)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "super-secret", user.PasswordHash)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	store := newMockUserStore()
	svc := NewUserService(store, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "maria@academy.co", Password: "super-secret", FullName: "Maria Gomez", Role: "staff",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateUserRequest{
		Email: "MARIA@academy.co", Password: "another-pass", FullName: "Other Maria", Role: "admin",
	})
	assert.Error(t, err)
}

func TestUserServiceCreateRejectsBadRole(t *testing.T) {
	svc := NewUserService(newMockUserStore(), nil, nil)
	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "x@academy.co", Password: "super-secret", FullName: "X Y", Role: "superadmin",
	})
	assert.Error(t, err)
}

func TestUserServiceUpdateDeactivationRevokesSessions(t *testing.T) {
	store := newMockUserStore()
	svc := NewUserService(store, nil, nil)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "maria@academy.co", Password: "super-secret", FullName: "Maria Gomez", Role: "staff",
	})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(context.Background(), user.ID, UpdateUserRequest{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, 1, store.revoked[user.ID])

	// Re-activating does not touch sessions again.
	active := true
	_, err = svc.Update(context.Background(), user.ID, UpdateUserRequest{Active: &active})
	require.NoError(t, err)
	assert.Equal(t, 1, store.revoked[user.ID])
}

func TestUserServiceDelete(t *testing.T) {
	store := newMockUserStore()
	svc := NewUserService(store, nil, nil)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "maria@academy.co", Password: "super-secret", FullName: "Maria Gomez", Role: "staff",
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), user.ID, user.ID)
	assert.Error(t, err, "self deletion is rejected")

	err = svc.Delete(context.Background(), user.ID, "another-admin")
	require.NoError(t, err)
	assert.Equal(t, 1, store.revoked[user.ID])

	err = svc.Delete(context.Background(), user.ID, "another-admin")
	assert.Error(t, err)
}

func TestUserServiceListFilters(t *testing.T) {
	store := newMockUserStore()
	svc := NewUserService(store, nil, nil)

	for _, seed := range []CreateUserRequest{
		{Email: "a@academy.co", Password: "super-secret", FullName: "Ana Admin", Role: "admin"},
		{Email: "b@academy.co", Password: "super-secret", FullName: "Berta Staff", Role: "staff"},
	} {
		_, err := svc.Create(context.Background(), seed)
		require.NoError(t, err)
	}

	role := models.RoleAdmin
	users, page, err := svc.List(context.Background(), models.UserFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ana Admin", users[0].FullName)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, 20, page.PageSize)
}
