package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/defect-portal/internal/models"
)

func resourceNamed(t *testing.T, name string) Resource {
	t.Helper()
	for _, res := range DefaultResources() {
		if res.Name == name {
			return res
		}
	}
	t.Fatalf("no resource %q", name)
	return Resource{}
}

func TestReshapeLeavesStatusRepliesAlone(t *testing.T) {
	users := resourceNamed(t, "users")

	out := users.reshape(map[string]any{"Message": "deleted"})
	assert.Equal(t, map[string]any{"message": "deleted"}, out)

	out = users.reshape(map[string]any{"Data": map[string]any{"Affected": float64(1)}})
	assert.Equal(t, map[string]any{"data": map[string]any{"affected": float64(1)}}, out)
}

func TestReshapeFillsSingleItem(t *testing.T) {
	users := resourceNamed(t, "users")

	out, ok := users.reshape(map[string]any{"User": map[string]any{"UserID": "5", "RoleName": "sysadmin"}}).(map[string]any)
	require.True(t, ok)
	user, ok := out["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "5", user["id"])
	assert.Equal(t, models.SystemAdmin, user["role"])
	assert.Equal(t, "", user["email"])
	assert.Equal(t, false, user["isActive"])
}

func TestReshapeFillsListItems(t *testing.T) {
	departments := resourceNamed(t, "departments")

	out, ok := departments.reshape(map[string]any{"Items": []any{map[string]any{"Name": "QA"}}}).(map[string]any)
	require.True(t, ok)
	items, ok := out["items"].([]any)
	require.True(t, ok)
	item := items[0].(map[string]any)
	assert.Equal(t, "QA", item["departmentName"])
	assert.Equal(t, "", item["id"])
}
