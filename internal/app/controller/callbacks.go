package controller

import (
	"context"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/app/fieldtype"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/profiledata"
)

// Callbacks is the set of named callbacks a host dispatcher invokes on its
// lifecycle events.
type Callbacks interface {
	RegisterFieldTypes(types map[domain.FieldType]fieldtype.Descriptor) map[domain.FieldType]fieldtype.Descriptor
	RegisterFieldTypeNames(names []domain.FieldType) []domain.FieldType
	FieldValue(ctx context.Context, value string, fieldType domain.FieldType, fieldID domain.FieldID, user domain.UserID) string
	FieldData(ctx context.Context, value string, fieldID domain.FieldID, user domain.UserID) string
	AfterDataSave(ctx context.Context, rec profiledata.Record) error
	FieldChildren(ctx context.Context, children []domain.ChildOption, forEditing bool, field domain.Field) ([]domain.ChildOption, error)
	SavedFieldMeta(ctx context.Context, field domain.Field, meta domain.FieldMeta) (domain.FieldMeta, error)
	SearchFieldType(hook SearchHook, fieldType domain.FieldType, field domain.Field) domain.FieldType
}

// Event names a host extension point.
type Event string

const (
	EventFieldTypes      Event = "field_types"
	EventEditFieldValue  Event = "edit_field_value"
	EventFieldValue      Event = "field_value"
	EventFieldData       Event = "field_data"
	EventDataAfterSave   Event = "data_after_save"
	EventSavedField      Event = "saved_field"
	EventFieldChildren   Event = "field_children"
	EventSearchValidType Event = "search_validation_type"
	EventSearchHTMLType  Event = "search_html_type"
	EventSearchCritType  Event = "search_criteria_type"
	EventSearchQueryType Event = "search_query_type"
)

// Installed lists the events the controller listens to given the host's
// capabilities.
func (c *Controller) Installed() []Event {
	var out []Event
	if c.host.FieldTypeRegistry {
		out = append(out, EventFieldTypes, EventEditFieldValue)
	}
	out = append(out, EventFieldValue, EventFieldData, EventDataAfterSave, EventSavedField, EventFieldChildren)
	if c.host.ProfileSearch {
		out = append(out, EventSearchValidType, EventSearchHTMLType, EventSearchCritType, EventSearchQueryType)
	}
	return out
}
