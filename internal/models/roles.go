package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonical role labels consumed by role-gated UI logic.
const (
	SystemAdmin     = "System Admin"
	DepartmentAdmin = "Department Admin"
	Employee        = "Employee"
)

// roleAliases maps lower-cased spellings seen across login, profile and cached payloads.
var roleAliases = map[string]string{
	"system admin":     SystemAdmin,
	"system_admin":     SystemAdmin,
	"system-admin":     SystemAdmin,
	"systemadmin":      SystemAdmin,
	"sys admin":        SystemAdmin,
	"sys_admin":        SystemAdmin,
	"sys-admin":        SystemAdmin,
	"sysadmin":         SystemAdmin,
	"department admin": DepartmentAdmin,
	"department_admin": DepartmentAdmin,
	"department-admin": DepartmentAdmin,
	"departmentadmin":  DepartmentAdmin,
	"dept admin":       DepartmentAdmin,
	"dept_admin":       DepartmentAdmin,
	"dept-admin":       DepartmentAdmin,
	"deptadmin":        DepartmentAdmin,
	"employee":         Employee,
	"emp":              Employee,
}

// NormalizeRole maps an arbitrary role string onto a canonical label.
//
// Lookup order: exact alias, then the substrings "sys", "dept" and "employee",
// then the title-cased input. Blank input yields Employee.
func NormalizeRole(role string) string {
	trimmed := strings.TrimSpace(role)
	key := strings.ToLower(trimmed)

	if canonical, ok := roleAliases[key]; ok {
		return canonical
	}
	switch {
	case strings.Contains(key, "sys"):
		return SystemAdmin
	case strings.Contains(key, "dept"):
		return DepartmentAdmin
	case strings.Contains(key, "employee"):
		return Employee
	}
	if trimmed != "" {
		return cases.Title(language.English).String(trimmed)
	}
	return Employee
}

// IsCanonicalRole reports whether role is one of the three canonical labels.
func IsCanonicalRole(role string) bool {
	switch role {
	case SystemAdmin, DepartmentAdmin, Employee:
		return true
	}
	return false
}
