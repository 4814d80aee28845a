package handlers

import (
	"github.com/hongminglow/defect-portal/internal/casing"
	"github.com/hongminglow/defect-portal/internal/models"
)

// field is a camelCase output key and the names it may arrive under.
type field struct {
	key     string
	sources []string
	boolean bool
}

// Resource describes one backend collection relayed under /api/{Name}.
type Resource struct {
	Name   string
	Fields []field
	// Fixup runs after the declared fields are filled.
	Fixup func(casing.Record)
}

func f(key string, sources ...string) field {
	return field{key: key, sources: append([]string{key}, sources...)}
}

func fb(key string, sources ...string) field {
	fld := f(key, sources...)
	fld.boolean = true
	return fld
}

var (
	defectFields = []field{
		f("id", "defectId"),
		f("title", "defectTitle", "subject"),
		f("description", "details"),
		f("status", "defectStatus"),
		f("priority", "severity"),
		f("departmentId"),
		f("departmentName", "department"),
		f("locationId"),
		f("locationName", "location"),
		f("reportedBy", "reporterName", "createdBy"),
		f("assignedTo", "assigneeName"),
		f("createdAt", "createdDate", "dateReported"),
		f("updatedAt", "updatedDate", "modifiedDate"),
	}
	userFields = []field{
		f("id", "userId"),
		f("employeeId", "employeeNumber"),
		f("fullName", "name", "displayName"),
		f("email", "emailAddress"),
		f("role", "roleName", "userRole"),
		f("departmentId"),
		f("departmentName", "department"),
		fb("isActive", "active", "status"),
	}
	departmentFields = []field{
		f("id", "departmentId"),
		f("departmentName", "name"),
		f("description"),
		f("userCount", "usersCount", "employeeCount"),
		fb("isActive", "active"),
	}
	locationFields = []field{
		f("id", "locationId"),
		f("locationName", "name"),
		f("departmentId"),
		f("departmentName", "department"),
		f("address", "description"),
	}
)

// DefaultResources lists the collections the portal relays.
func DefaultResources() []Resource {
	return []Resource{
		{Name: "defects", Fields: defectFields},
		{Name: "users", Fields: userFields, Fixup: normalizeUserRole},
		{Name: "departments", Fields: departmentFields},
		{Name: "locations", Fields: locationFields},
		{Name: "dashboard"},
		{Name: "analytics"},
	}
}

// normalizeUserRole keeps non-canonical role spellings from reaching role-gated UI.
func normalizeUserRole(rec casing.Record) {
	if _, ok := rec["role"]; ok {
		rec["role"] = models.NormalizeRole(casing.ToString(rec["role"]))
	}
}

// reshape camelizes a backend payload and fills each item's declared fields.
// Objects holding a list under data/items/results/<resource> are treated as envelopes.
func (res Resource) reshape(payload any) any {
	out := casing.Camelize(payload)
	switch val := out.(type) {
	case []any:
		for _, item := range val {
			res.reshapeItem(item)
		}
	case map[string]any:
		rec := casing.Record(val)
		for _, key := range []string{"data", "items", "results", res.Name} {
			if list, ok := rec[key].([]any); ok {
				for _, item := range list {
					res.reshapeItem(item)
				}
				return out
			}
		}
		if nested, ok := rec[res.singular()].(map[string]any); ok {
			res.reshapeObject(nested)
			return out
		}
		if nested, ok := rec["data"].(map[string]any); ok {
			res.reshapeObject(nested)
			return out
		}
		res.reshapeObject(rec)
	}
	return out
}

// reshapeObject fills a lone object only when it carries one of the
// resource's id fields; status replies such as {"message":"deleted"} pass through.
func (res Resource) reshapeObject(rec casing.Record) {
	if ids := res.idSources(); len(ids) > 0 && rec.Has(ids...) {
		res.reshapeItem(rec)
	}
}

func (res Resource) idSources() []string {
	for _, fld := range res.Fields {
		if fld.key == "id" {
			return fld.sources
		}
	}
	return nil
}

func (res Resource) reshapeItem(item any) {
	rec, ok := casing.AsRecord(item)
	if !ok {
		return
	}
	for _, fld := range res.Fields {
		v, found := rec.Lookup(fld.sources...)
		if nested, isObj := casing.AsRecord(v); found && isObj {
			v = nested.String("name", fld.key, "id")
		}
		switch {
		case fld.boolean:
			b, _ := casing.ToBool(v)
			rec[fld.key] = b
		case found && v != nil:
			rec[fld.key] = v
		default:
			rec[fld.key] = ""
		}
	}
	if res.Fixup != nil {
		res.Fixup(rec)
	}
}

func (res Resource) singular() string {
	if n := len(res.Name); n > 1 && res.Name[n-1] == 's' {
		return res.Name[:n-1]
	}
	return res.Name
}
