package dto

import "github.com/hongminglow/defect-portal/internal/models"

// LoginResponse mirrors the backend login contract: {success, user} or {success:false, error}.
type LoginResponse struct {
	Success  bool                `json:"success"`
	User     *models.SessionUser `json:"user,omitempty"`
	Error    string              `json:"error,omitempty"`
	Redirect string              `json:"redirect,omitempty"`
}

type LogoutResponse struct {
	Success  bool   `json:"success"`
	Redirect string `json:"redirect"`
}

// SessionSnapshot is what GET /session reports after initialization.
type SessionSnapshot struct {
	Authenticated bool                `json:"authenticated"`
	State         string              `json:"state"`
	User          *models.SessionUser `json:"user,omitempty"`
}

type GuardResponse struct {
	Path     string `json:"path"`
	Redirect string `json:"redirect,omitempty"`
	SessionSnapshot
}

// PageDescriptor is served for page routes when no web root is configured.
type PageDescriptor struct {
	Path              string              `json:"path"`
	User              *models.SessionUser `json:"user,omitempty"`
	IsSystemAdmin     bool                `json:"isSystemAdmin"`
	IsDepartmentAdmin bool                `json:"isDepartmentAdmin"`
}

// NewPageDescriptor describes path for user, which may be nil.
func NewPageDescriptor(path string, user *models.SessionUser) PageDescriptor {
	page := PageDescriptor{Path: path, User: user}
	if user != nil {
		page.IsSystemAdmin = user.IsSystemAdmin()
		page.IsDepartmentAdmin = user.IsDepartmentAdmin()
	}
	return page
}
