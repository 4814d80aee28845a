package storage_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/defect-portal/internal/auth"
	"github.com/hongminglow/defect-portal/internal/storage"
	"github.com/hongminglow/defect-portal/internal/storage/memory"
)

func newResolver(t *testing.T) (*storage.TokenResolver, *memory.Store) {
	t.Helper()
	store := memory.NewStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	tokens := auth.NewSlotTokens("0123456789abcdef0123456789abcdef", "defect-portal", time.Hour)
	return storage.NewTokenResolver(store, tokens, false), store
}

func TestTokenResolverIssuesSlotCookie(t *testing.T) {
	resolver, _ := newResolver(t)
	rec := httptest.NewRecorder()

	slot, err := resolver.Resolve(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NotNil(t, slot)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, storage.SlotCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestTokenResolverReusesSlot(t *testing.T) {
	ctx := context.Background()
	resolver, _ := newResolver(t)

	first := httptest.NewRecorder()
	slot, err := resolver.Resolve(first, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, slot.SetItem(ctx, storage.KeyCurrentUser, "remembered"))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range first.Result().Cookies() {
		req.AddCookie(c)
	}
	second := httptest.NewRecorder()
	again, err := resolver.Resolve(second, req)
	require.NoError(t, err)

	got, err := again.GetItem(ctx, storage.KeyCurrentUser)
	require.NoError(t, err)
	assert.Equal(t, "remembered", got)
	assert.Empty(t, second.Result().Cookies(), "a valid slot cookie is not reissued")
}

func TestTokenResolverReplacesTamperedCookie(t *testing.T) {
	resolver, _ := newResolver(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: storage.SlotCookieName, Value: "forged"})
	rec := httptest.NewRecorder()

	slot, err := resolver.Resolve(rec, req)
	require.NoError(t, err)

	_, err = slot.GetItem(context.Background(), storage.KeyCurrentUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Len(t, rec.Result().Cookies(), 1)
}
