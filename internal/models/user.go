package models

// SessionUser is the authenticated principal as held by the portal session.
// Its JSON form is the persisted currentUser value.
type SessionUser struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employeeId"`
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	DepartmentName string `json:"departmentName"`
	DepartmentID   string `json:"departmentId"`
	IsActive       bool   `json:"isActive"`
}

// IsSystemAdmin reports whether the user holds the System Admin role.
func (u SessionUser) IsSystemAdmin() bool {
	return u.Role == SystemAdmin
}

// IsDepartmentAdmin reports whether the user holds the Department Admin role.
func (u SessionUser) IsDepartmentAdmin() bool {
	return u.Role == DepartmentAdmin
}
