package domain

// MemberTypeName is the machine name of a member type (lowercase, hyphen-separated).
type MemberTypeName string

// MemberTypeLabels are the human-readable labels of a member type.
type MemberTypeLabels struct {
	Name         string
	SingularName string
}

// MemberType is a named category a user can belong to.
//
// Only active member types count as registered: inactive ones are invisible to
// validation, option listing and assignment.
type MemberType struct {
	Name   MemberTypeName
	DBID   int64
	Labels MemberTypeLabels
	Active bool
}

// SingularLabel returns the singular display label, falling back to the name.
func (mt MemberType) SingularLabel() string {
	if mt.Labels.SingularName != "" {
		return mt.Labels.SingularName
	}
	if mt.Labels.Name != "" {
		return mt.Labels.Name
	}
	return string(mt.Name)
}
