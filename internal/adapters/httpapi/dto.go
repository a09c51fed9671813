package httpapi

import (
	"github.com/oapi-codegen/nullable"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/app/fieldtype"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
)

type FieldType struct {
	Type                     string `json:"type"`
	Category                 string `json:"category"`
	Name                     string `json:"name"`
	SupportsMultipleDefaults bool   `json:"supportsMultipleDefaults"`
	AcceptsNullValue         bool   `json:"acceptsNullValue"`
	SupportsOptions          bool   `json:"supportsOptions"`
}

type ListFieldTypesResponse struct {
	FieldTypes []FieldType `json:"fieldTypes"`
}

type MemberTypeOption struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

type ListMemberTypesResponse struct {
	MemberTypes []MemberTypeOption `json:"memberTypes"`
}

type CreateFieldRequest struct {
	GroupId     int64  `json:"groupId"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsRequired  bool   `json:"isRequired"`
}

type Field struct {
	Id          int64  `json:"id"`
	GroupId     int64  `json:"groupId"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsRequired  bool   `json:"isRequired"`
}

type FieldMeta struct {
	DefaultValue  nullable.Nullable[string] `json:"defaultValue,omitempty"`
	DisplayType   string                    `json:"displayType"`
	Restriction   string                    `json:"restriction"`
	SelectedTypes []string                  `json:"selectedTypes"`
}

type ChildOption struct {
	Id              int64  `json:"id"`
	GroupId         int64  `json:"groupId"`
	ParentId        int64  `json:"parentId"`
	Type            string `json:"type"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	IsRequired      bool   `json:"isRequired"`
	IsDefaultOption bool   `json:"isDefaultOption"`
	FieldOrder      int    `json:"fieldOrder"`
	OptionOrder     int    `json:"optionOrder"`
	OrderBy         string `json:"orderBy"`
	CanDelete       bool   `json:"canDelete"`
}

type ListChildrenResponse struct {
	Children []ChildOption `json:"children"`
}

type SaveFieldValueResponse struct {
	FieldId    int64                     `json:"fieldId"`
	UserId     int64                     `json:"userId"`
	Value      string                    `json:"value"`
	Sync       string                    `json:"sync"`
	MemberType nullable.Nullable[string] `json:"memberType"`
}

type FieldValueResponse struct {
	FieldId int64  `json:"fieldId"`
	UserId  int64  `json:"userId"`
	Value   string `json:"value"`
}

type MemberTypeResponse struct {
	UserId     int64                     `json:"userId"`
	MemberType nullable.Nullable[string] `json:"memberType"`
}

type SearchTypeResponse struct {
	Hook string `json:"hook"`
	Type string `json:"type"`
}

func fieldTypeFromDescriptor(t domain.FieldType, d fieldtype.Descriptor) FieldType {
	info := d.Info()
	return FieldType{
		Type:                     string(t),
		Category:                 info.Category,
		Name:                     info.Name,
		SupportsMultipleDefaults: info.SupportsMultipleDefaults,
		AcceptsNullValue:         info.AcceptsNullValue,
		SupportsOptions:          info.SupportsOptions,
	}
}

func fieldFromDomain(f domain.Field) Field {
	return Field{
		Id:          int64(f.ID),
		GroupId:     int64(f.GroupID),
		Type:        string(f.Type),
		Name:        f.Name,
		Description: f.Description,
		IsRequired:  f.IsRequired,
	}
}

func fieldMetaFromDomain(m domain.FieldMeta) FieldMeta {
	out := FieldMeta{
		DisplayType:   string(m.DisplayType),
		Restriction:   string(m.Restriction),
		SelectedTypes: make([]string, 0, len(m.SelectedTypes)),
	}
	if m.DefaultValue == "" {
		out.DefaultValue = nullable.NewNullNullable[string]()
	} else {
		out.DefaultValue = nullable.NewNullableWithValue(m.DefaultValue)
	}
	for _, s := range m.SelectedTypes {
		out.SelectedTypes = append(out.SelectedTypes, string(s))
	}
	return out
}

func fieldMetaToDomain(m FieldMeta) domain.FieldMeta {
	out := domain.FieldMeta{
		DisplayType: domain.DisplayType(m.DisplayType),
		Restriction: domain.Restriction(m.Restriction),
	}
	if m.DefaultValue.IsSpecified() && !m.DefaultValue.IsNull() {
		if v, err := m.DefaultValue.Get(); err == nil {
			out.DefaultValue = v
		}
	}
	for _, s := range m.SelectedTypes {
		out.SelectedTypes = append(out.SelectedTypes, domain.MemberTypeName(s))
	}
	return out
}

func childOptionFromDomain(c domain.ChildOption) ChildOption {
	return ChildOption{
		Id:              c.ID,
		GroupId:         int64(c.GroupID),
		ParentId:        int64(c.ParentID),
		Type:            string(c.Type),
		Name:            c.Name,
		Description:     c.Description,
		IsRequired:      c.IsRequired,
		IsDefaultOption: c.IsDefaultOption,
		FieldOrder:      c.FieldOrder,
		OptionOrder:     c.OptionOrder,
		OrderBy:         c.OrderBy,
		CanDelete:       c.CanDelete,
	}
}

func childOptionFromField(f domain.Field) domain.ChildOption {
	return domain.ChildOption{
		ID:              int64(f.ID),
		GroupID:         f.GroupID,
		ParentID:        f.ParentID,
		Type:            f.Type,
		Name:            f.Name,
		Description:     f.Description,
		IsRequired:      f.IsRequired,
		IsDefaultOption: f.IsDefaultOption,
		FieldOrder:      f.FieldOrder,
		OptionOrder:     f.OptionOrder,
		OrderBy:         f.OrderBy,
		CanDelete:       f.CanDelete,
	}
}

func nullableMemberType(name domain.MemberTypeName, ok bool) nullable.Nullable[string] {
	if !ok || name == "" {
		return nullable.NewNullNullable[string]()
	}
	return nullable.NewNullableWithValue(string(name))
}
