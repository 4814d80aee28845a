package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleCommand(t *testing.T) {
	tests := map[string]string{
		"sysadmin":       "System Admin",
		"dept manager":   "Department Admin",
		"EMPLOYEE_STAFF": "Employee",
		"guest":          "Guest",
	}
	for in, want := range tests {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs([]string{"role", in})
		require.NoError(t, root.Execute())
		assert.Equal(t, want+"\n", out.String(), in)
	}
}

func TestRoleCommandRequiresArgument(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"role"})
	assert.Error(t, root.Execute())
}
