package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoleKnownAliases(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sysAdmin", SystemAdmin},
		{"sys_admin", SystemAdmin},
		{"System Admin", SystemAdmin},
		{"system-admin", SystemAdmin},
		{"dept_admin", DepartmentAdmin},
		{"DeptAdmin", DepartmentAdmin},
		{"Department Admin", DepartmentAdmin},
		{"departmentAdmin", DepartmentAdmin},
		{"EMPLOYEE", Employee},
		{"Employee", Employee},
		{"emp", Employee},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeRole(tt.in))
		})
	}
}

func TestNormalizeRoleSubstringPrecedence(t *testing.T) {
	assert.Equal(t, SystemAdmin, NormalizeRole("SysOps"))
	assert.Equal(t, SystemAdmin, NormalizeRole("sys-dept-employee"), "sys is checked before dept")
	assert.Equal(t, DepartmentAdmin, NormalizeRole("Dept. Lead"))
	assert.Equal(t, DepartmentAdmin, NormalizeRole("dept employee"), "dept is checked before employee")
	assert.Equal(t, Employee, NormalizeRole("Contract Employees"))
}

func TestNormalizeRoleTitleCasesUnknown(t *testing.T) {
	assert.Equal(t, "Guest", NormalizeRole("guest"))
	assert.Equal(t, "Quality Auditor", NormalizeRole("quality auditor"))
	assert.Equal(t, "Guest", NormalizeRole("  GUEST "))
}

func TestNormalizeRoleEmptyDefaultsToEmployee(t *testing.T) {
	assert.Equal(t, Employee, NormalizeRole(""))
	assert.Equal(t, Employee, NormalizeRole("   "))
}

func TestIsCanonicalRole(t *testing.T) {
	assert.True(t, IsCanonicalRole(SystemAdmin))
	assert.True(t, IsCanonicalRole(NormalizeRole("dept_admin")))
	assert.False(t, IsCanonicalRole(NormalizeRole("guest")))
}

func TestSessionUserRoleChecks(t *testing.T) {
	admin := SessionUser{Role: SystemAdmin}
	assert.True(t, admin.IsSystemAdmin())
	assert.False(t, admin.IsDepartmentAdmin())

	head := SessionUser{Role: DepartmentAdmin}
	assert.True(t, head.IsDepartmentAdmin())
	assert.False(t, head.IsSystemAdmin())

	assert.False(t, SessionUser{Role: Employee}.IsSystemAdmin())
}
