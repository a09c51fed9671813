package domain

// FieldType tags the behavior descriptor a profile field is handled by.
type FieldType string

const (
	FieldTypeMemberType FieldType = "membertype"

	// Native host kinds.
	FieldTypeTextbox   FieldType = "textbox"
	FieldTypeTextarea  FieldType = "textarea"
	FieldTypeSelectbox FieldType = "selectbox"
	FieldTypeRadio     FieldType = "radio"
	FieldTypeCheckbox  FieldType = "checkbox"
	FieldTypeOption    FieldType = "option"
)

// Field is the host's profile field definition.
type Field struct {
	ID       FieldID
	GroupID  GroupID
	ParentID FieldID
	Type     FieldType

	Name        string
	Description string

	IsRequired      bool
	IsDefaultOption bool
	CanDelete       bool

	FieldOrder  int
	OptionOrder int
	OrderBy     string
}

// ChildOption is the "option" record shape the host uses for a field's children.
type ChildOption struct {
	ID              int64
	GroupID         GroupID
	ParentID        FieldID
	Type            FieldType
	Name            string
	Description     string
	IsRequired      bool
	IsDefaultOption bool
	FieldOrder      int
	OptionOrder     int
	OrderBy         string
	CanDelete       bool
}

// DisplayType selects how a member type field renders its options.
type DisplayType string

const (
	DisplayTypeSelect DisplayType = "select"
	DisplayTypeRadio  DisplayType = "radio"
)

// Restriction limits which member types a field offers.
type Restriction string

const (
	RestrictionUnrestricted Restriction = "unrestricted"
	RestrictionRestricted   Restriction = "restricted"
)

// Field metadata keys in the host's key/value store.
const (
	MetaKeyDefaultValue  = "default_value"
	MetaKeyDisplayType   = "display_type"
	MetaKeyRestriction   = "restriction"
	MetaKeySelectedTypes = "selected_types"
)

// FieldMeta is the member type field configuration kept in field metadata.
type FieldMeta struct {
	DefaultValue  string
	DisplayType   DisplayType
	Restriction   Restriction
	SelectedTypes []MemberTypeName
}

// EffectiveDisplayType returns the display type, defaulting to select.
func (m FieldMeta) EffectiveDisplayType() DisplayType {
	if m.DisplayType == DisplayTypeRadio {
		return DisplayTypeRadio
	}
	return DisplayTypeSelect
}

// IsRestricted reports whether options are limited to SelectedTypes.
func (m FieldMeta) IsRestricted() bool {
	return m.Restriction == RestrictionRestricted
}

// Allows reports whether name is part of the restricted selection.
func (m FieldMeta) Allows(name MemberTypeName) bool {
	for _, s := range m.SelectedTypes {
		if s == name {
			return true
		}
	}
	return false
}
