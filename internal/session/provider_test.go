package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/defect-portal/internal/backend"
	"github.com/hongminglow/defect-portal/internal/casing"
	"github.com/hongminglow/defect-portal/internal/models"
	"github.com/hongminglow/defect-portal/internal/storage"
)

type fakeStorage struct {
	items   map[string]string
	failSet bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{items: map[string]string{}}
}

func (f *fakeStorage) GetItem(_ context.Context, key string) (string, error) {
	v, ok := f.items[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (f *fakeStorage) SetItem(_ context.Context, key, value string) error {
	if f.failSet {
		return errors.New("disk full")
	}
	f.items[key] = value
	return nil
}

func (f *fakeStorage) RemoveItem(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.items, k)
	}
	return nil
}

func (f *fakeStorage) cacheUser(t *testing.T, u models.SessionUser) {
	t.Helper()
	raw, err := json.Marshal(u)
	require.NoError(t, err)
	f.items[storage.KeyCurrentUser] = string(raw)
	f.items[storage.KeySessionExpiry] = "1"
}

func (f *fakeStorage) storedUser(t *testing.T) models.SessionUser {
	t.Helper()
	raw, ok := f.items[storage.KeyCurrentUser]
	require.True(t, ok, "currentUser should be persisted")
	var u models.SessionUser
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	return u
}

type fakeBackend struct {
	profile    casing.Record
	profileErr error
	logoutErr  error
	logouts    int
}

func (f *fakeBackend) FetchProfile(context.Context) (casing.Record, error) {
	return f.profile, f.profileErr
}

func (f *fakeBackend) Logout(context.Context) error {
	f.logouts++
	return f.logoutErr
}

func newTestProvider(st storage.Storage, be Backend) (*Provider, *RecordingNavigator) {
	nav := &RecordingNavigator{}
	return NewProvider(st, be, nav, Options{Logger: zap.NewNop()}), nav
}

var cachedAlice = models.SessionUser{
	ID:             "1",
	EmployeeID:     "E-001",
	FullName:       "Alice Tan",
	Email:          "a@x.com",
	Role:           models.DepartmentAdmin,
	DepartmentName: "Quality",
	DepartmentID:   "10",
	IsActive:       true,
}

func TestSeedRestoresCachedUserBeforeFetch(t *testing.T) {
	st := newFakeStorage()
	st.cacheUser(t, cachedAlice)
	p, _ := newTestProvider(st, &fakeBackend{})

	p.Seed(context.Background())

	u, ok := p.User()
	require.True(t, ok)
	assert.Equal(t, cachedAlice, u)
	assert.Equal(t, Initializing, p.State())
}

func TestInitializeKeepsCachedEmailWhenFetchOmitsIt(t *testing.T) {
	st := newFakeStorage()
	st.cacheUser(t, cachedAlice)
	p, _ := newTestProvider(st, &fakeBackend{profile: casing.Record{"Id": 1, "FullName": "Alice T.", "Role": "deptAdmin"}})

	p.Initialize(context.Background())

	u, ok := p.User()
	require.True(t, ok)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, "Quality", u.DepartmentName)
	assert.Equal(t, "Alice T.", u.FullName)
	assert.Equal(t, models.DepartmentAdmin, u.Role)
	assert.Equal(t, Authenticated, p.State())
	assert.Equal(t, u, st.storedUser(t))
}

func TestInitializeFetchedEmailWins(t *testing.T) {
	st := newFakeStorage()
	st.cacheUser(t, cachedAlice)
	p, _ := newTestProvider(st, &fakeBackend{profile: casing.Record{"id": "1", "email": "b@x.com"}})

	p.Initialize(context.Background())

	u, _ := p.User()
	assert.Equal(t, "b@x.com", u.Email)
	assert.Equal(t, "b@x.com", st.storedUser(t).Email)
}

func TestInitializeEmptyFetchedDepartmentKeepsCache(t *testing.T) {
	st := newFakeStorage()
	st.cacheUser(t, cachedAlice)
	p, _ := newTestProvider(st, &fakeBackend{profile: casing.Record{
		"id": "1", "email": "", "DepartmentName": "", "DepartmentId": nil, "EmployeeId": "E-777",
	}})

	p.Initialize(context.Background())

	u, _ := p.User()
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, "Quality", u.DepartmentName)
	assert.Equal(t, "10", u.DepartmentID)
	assert.Equal(t, "E-777", u.EmployeeID)
}

func TestInitializeWithoutCacheNormalizesFetchedProfile(t *testing.T) {
	st := newFakeStorage()
	p, _ := newTestProvider(st, &fakeBackend{profile: casing.Record{
		"UserID":     42,
		"FirstName":  "Bob",
		"LastName":   "Lim",
		"Email":      "bob@x.com",
		"Role":       "SYS_ADMIN",
		"Department": map[string]any{"Id": 3, "Name": "Maintenance"},
		"IsActive":   false,
	}})

	p.Initialize(context.Background())

	u, ok := p.User()
	require.True(t, ok)
	assert.Equal(t, models.SessionUser{
		ID:             "42",
		EmployeeID:     "42",
		FullName:       "Bob Lim",
		Email:          "bob@x.com",
		Role:           models.SystemAdmin,
		DepartmentName: "Maintenance",
		DepartmentID:   "3",
		IsActive:       false,
	}, u)
}

func TestInitializeFetchFailureFallsBackToCacheVerbatim(t *testing.T) {
	stale := cachedAlice
	stale.Role = "dept_admin"
	st := newFakeStorage()
	st.cacheUser(t, stale)
	before := st.items[storage.KeyCurrentUser]
	p, _ := newTestProvider(st, &fakeBackend{profileErr: errors.New("connection refused")})

	p.Initialize(context.Background())

	u, ok := p.User()
	require.True(t, ok)
	assert.Equal(t, "dept_admin", u.Role, "cached record is not renormalized")
	assert.Equal(t, Authenticated, p.State())
	assert.Equal(t, before, st.items[storage.KeyCurrentUser])
}

func TestInitializeEmptyFetchWithoutCacheIsUnauthenticated(t *testing.T) {
	p, _ := newTestProvider(newFakeStorage(), &fakeBackend{})

	p.Initialize(context.Background())

	_, ok := p.User()
	assert.False(t, ok)
	assert.Equal(t, Unauthenticated, p.State())
}

func TestInitializeUnauthorizedForcesLogout(t *testing.T) {
	st := newFakeStorage()
	st.cacheUser(t, cachedAlice)
	p, nav := newTestProvider(st, &fakeBackend{profileErr: backend.ErrUnauthorized})

	p.Initialize(context.Background())

	_, ok := p.User()
	assert.False(t, ok)
	assert.Equal(t, Unauthenticated, p.State())
	assert.Empty(t, st.items)
	assert.Empty(t, nav.Target, "forced logout leaves navigation to the guard")
}

func TestLoginPersistsWithExpiryAndNavigates(t *testing.T) {
	st := newFakeStorage()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	nav := &RecordingNavigator{}
	p := NewProvider(st, &fakeBackend{}, nav, Options{Now: func() time.Time { return now }})
	p.Initialize(context.Background())

	u := p.Login(context.Background(), casing.Record{
		"Id":             "5",
		"Name":           "Carol",
		"EmailAddress":   "carol@x.com",
		"RoleName":       "employee",
		"DepartmentName": "Logistics",
	})

	assert.Equal(t, models.Employee, u.Role)
	assert.Equal(t, "Carol", u.FullName)
	assert.Equal(t, "5", u.EmployeeID)
	assert.Equal(t, "carol@x.com", u.Email)
	assert.True(t, u.IsActive)
	assert.Equal(t, Authenticated, p.State())
	assert.Equal(t, DashboardPath, nav.Target)
	assert.Equal(t, u, st.storedUser(t))
	assert.Equal(t, strconv.FormatInt(now.Add(20*time.Minute).UnixMilli(), 10), st.items[storage.KeySessionExpiry])
}

func TestLoginFillsDisplayFieldsFromNestedEmployee(t *testing.T) {
	p, _ := newTestProvider(newFakeStorage(), &fakeBackend{})

	u := p.Login(context.Background(), casing.Record{
		"id":       7,
		"role":     "",
		"employee": map[string]any{"EmployeeId": "E-9", "FullName": "Dan Ho", "Email": "dan@x.com", "DepartmentName": "Ops"},
	})

	assert.Equal(t, "E-9", u.EmployeeID)
	assert.Equal(t, "Dan Ho", u.FullName)
	assert.Equal(t, "dan@x.com", u.Email)
	assert.Equal(t, "Ops", u.DepartmentName)
	assert.Equal(t, models.Employee, u.Role)
}

func TestLoginSurvivesStorageFailure(t *testing.T) {
	st := newFakeStorage()
	st.failSet = true
	p, nav := newTestProvider(st, &fakeBackend{})

	u := p.Login(context.Background(), casing.Record{"id": "1", "role": "sysadmin"})

	assert.Equal(t, models.SystemAdmin, u.Role)
	assert.Equal(t, Authenticated, p.State())
	assert.Equal(t, DashboardPath, nav.Target)
}

func TestLogoutClearsEvenWhenBackendFails(t *testing.T) {
	st := newFakeStorage()
	st.cacheUser(t, cachedAlice)
	be := &fakeBackend{profile: casing.Record{"id": "1"}, logoutErr: errors.New("502 bad gateway")}
	p, nav := newTestProvider(st, be)
	p.Initialize(context.Background())

	p.Logout(context.Background())

	assert.Equal(t, 1, be.logouts)
	assert.Empty(t, st.items)
	_, ok := p.User()
	assert.False(t, ok)
	assert.Equal(t, Unauthenticated, p.State())
	assert.Equal(t, LoginPath, nav.Target)
}

func TestGuardWaitsForInitialization(t *testing.T) {
	p, nav := newTestProvider(newFakeStorage(), &fakeBackend{})

	_, redirected := p.Guard("/dashboard")
	assert.False(t, redirected)
	assert.Empty(t, nav.Target)
}

func TestGuardRedirectsUnauthenticated(t *testing.T) {
	p, nav := newTestProvider(newFakeStorage(), &fakeBackend{})
	p.Initialize(context.Background())

	target, redirected := p.Guard("/dashboard")
	assert.True(t, redirected)
	assert.Equal(t, LoginPath, target)
	assert.Equal(t, LoginPath, nav.Target)

	for _, path := range []string{"/", "/login", "/forgot-password", "/resend-code", "/reset-password", "/reset-password/abc123"} {
		_, redirected := p.Guard(path)
		assert.False(t, redirected, path)
	}
}

func TestGuardLeavesAuthenticatedUserOnAuthPages(t *testing.T) {
	st := newFakeStorage()
	st.cacheUser(t, cachedAlice)
	p, nav := newTestProvider(st, &fakeBackend{profile: casing.Record{"id": "1"}})
	p.Initialize(context.Background())

	for _, path := range []string{"/login", "/", "/dashboard", "/defects/12"} {
		_, redirected := p.Guard(path)
		assert.False(t, redirected, path)
	}
	assert.Empty(t, nav.Target)
}
