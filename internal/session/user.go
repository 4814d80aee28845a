package session

import (
	"strings"

	"github.com/hongminglow/defect-portal/internal/casing"
	"github.com/hongminglow/defect-portal/internal/models"
)

// Field synonyms accepted from login, profile and cached payloads.
var (
	idFields             = []string{"id", "userId"}
	employeeIDFields     = []string{"employeeId", "employeeNumber", "employee_id"}
	fullNameFields       = []string{"fullName", "name", "displayName", "full_name"}
	emailFields          = []string{"email", "emailAddress", "userEmail"}
	roleFields           = []string{"role", "roleName", "userRole", "userType"}
	departmentNameFields = []string{"departmentName", "department_name"}
	departmentIDFields   = []string{"departmentId", "department_id"}
	activeFields         = []string{"isActive", "active", "is_active"}
)

// departmentName reads the department label, which some endpoints send as a
// string and others as a nested {id, name} object.
func departmentName(rec casing.Record) (string, bool) {
	if v, ok := rec.LookupString(departmentNameFields...); ok {
		return v, true
	}
	if nested := rec.Record("department"); nested != nil {
		return nested.LookupString("departmentName", "name")
	}
	if v, ok := rec.Lookup("department"); ok {
		if s, isString := v.(string); isString {
			return s, true
		}
	}
	return "", false
}

func departmentID(rec casing.Record) (string, bool) {
	if v, ok := rec.LookupString(departmentIDFields...); ok {
		return v, true
	}
	if nested := rec.Record("department"); nested != nil {
		return nested.LookupString("departmentId", "id")
	}
	return "", false
}

// fullName falls back to first and last name when no full name is sent.
func fullName(rec casing.Record) (string, bool) {
	if v, ok := rec.LookupString(fullNameFields...); ok && strings.TrimSpace(v) != "" {
		return v, true
	}
	first := strings.TrimSpace(rec.String("firstName", "first_name"))
	last := strings.TrimSpace(rec.String("lastName", "last_name"))
	if joined := strings.TrimSpace(first + " " + last); joined != "" {
		return joined, true
	}
	return "", false
}

// overlay copies every field present in rec onto u. Email and department are
// only taken when rec carries a non-empty value.
func overlay(u models.SessionUser, rec casing.Record) models.SessionUser {
	if v, ok := rec.LookupString(idFields...); ok {
		u.ID = v
	}
	if v, ok := rec.LookupString(employeeIDFields...); ok {
		u.EmployeeID = v
	}
	if v, ok := fullName(rec); ok {
		u.FullName = v
	}
	if v, ok := rec.LookupString(roleFields...); ok {
		u.Role = v
	}
	if v, ok := rec.Bool(activeFields...); ok {
		u.IsActive = v
	}
	if v := rec.String(emailFields...); v != "" {
		u.Email = v
	}
	if v, _ := departmentName(rec); v != "" {
		u.DepartmentName = v
	}
	if v, _ := departmentID(rec); v != "" {
		u.DepartmentID = v
	}
	return u
}

// fillDisplayFields normalizes the role and fills display fields the UI
// depends on from the best source available.
func fillDisplayFields(u models.SessionUser, sources ...casing.Record) models.SessionUser {
	u.Role = models.NormalizeRole(u.Role)
	for _, src := range sources {
		if u.FullName == "" {
			u.FullName, _ = fullName(src)
		}
		if u.EmployeeID == "" {
			u.EmployeeID = src.String(employeeIDFields...)
		}
		if u.Email == "" {
			u.Email = src.String(emailFields...)
		}
		if u.DepartmentName == "" {
			u.DepartmentName, _ = departmentName(src)
		}
		if u.DepartmentID == "" {
			u.DepartmentID, _ = departmentID(src)
		}
	}
	if u.EmployeeID == "" {
		u.EmployeeID = u.ID
	}
	if u.FullName == "" && u.Email != "" {
		u.FullName = strings.SplitN(u.Email, "@", 2)[0]
	}
	return u
}

// userFromRecord builds a session user from a raw login payload.
func userFromRecord(rec casing.Record) models.SessionUser {
	u := overlay(models.SessionUser{IsActive: true}, rec)
	return fillDisplayFields(u, rec, rec.Record("employee"), rec.Record("profile"))
}

// mergeProfile lays a fetched profile over the cached user. Fetched fields win
// when present; a cached email or department survives a fetch that omits it.
func mergeProfile(cached *models.SessionUser, fetched casing.Record) models.SessionUser {
	base := models.SessionUser{IsActive: true}
	if cached != nil {
		base = *cached
	}
	return fillDisplayFields(overlay(base, fetched), fetched)
}
