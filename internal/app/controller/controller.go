// Package controller bridges host lifecycle events to the member type field:
// field type registration, read-time value filtering, member type
// synchronization after a profile value is saved, and option enumeration.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/app/fieldtype"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/platform/logging"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/platform/metrics"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/fieldrepo"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/membertypes"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/profiledata"
)

// HostCapabilities report which optional host features are present.
type HostCapabilities struct {
	// FieldTypeRegistry is set when the host builds a field type collection.
	// Without it the field type is not registered, but read-time filters are
	// still installed.
	FieldTypeRegistry bool

	// ProfileSearch is set when the profile search extension is active.
	ProfileSearch bool
}

type Deps struct {
	Field    *fieldtype.MemberTypeField
	Fields   fieldrepo.Repository
	Data     profiledata.Repository
	Registry membertypes.Registry
	Assigner membertypes.Assigner
	Host     HostCapabilities

	// Optional.
	Hooks   *Hooks
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Controller implements Callbacks.
type Controller struct {
	field    *fieldtype.MemberTypeField
	fields   fieldrepo.Repository
	data     profiledata.Repository
	registry membertypes.Registry
	assigner membertypes.Assigner
	host     HostCapabilities
	hooks    *Hooks
	log      *slog.Logger
	metrics  *metrics.Metrics

	mu    sync.RWMutex
	types map[domain.FieldType]fieldtype.Descriptor
}

var _ Callbacks = (*Controller)(nil)

func New(d Deps) *Controller {
	h := d.Hooks
	if h == nil {
		h = &Hooks{}
	}
	l := d.Logger
	if l == nil {
		l = logging.L()
	}
	return &Controller{
		field:    d.Field,
		fields:   d.Fields,
		data:     d.Data,
		registry: d.Registry,
		assigner: d.Assigner,
		host:     d.Host,
		hooks:    h,
		log:      l.With("component", "membertype_controller"),
		metrics:  d.Metrics,
	}
}

// RegisterFieldTypes adds the member type field to the collection the host is
// assembling. A nil collection is replaced by a new one. When the host has no
// field type registry the collection is returned untouched.
func (c *Controller) RegisterFieldTypes(types map[domain.FieldType]fieldtype.Descriptor) map[domain.FieldType]fieldtype.Descriptor {
	if !c.host.FieldTypeRegistry {
		return types
	}
	if types == nil {
		types = make(map[domain.FieldType]fieldtype.Descriptor)
	}
	types[c.field.Kind()] = c.field

	c.mu.Lock()
	c.types = types
	c.mu.Unlock()
	return types
}

// RegisterFieldTypeNames appends the member type field to a plain list of
// field type names, as used by older hosts.
func (c *Controller) RegisterFieldTypeNames(names []domain.FieldType) []domain.FieldType {
	for _, n := range names {
		if n == c.field.Kind() {
			return names
		}
	}
	return append(names, c.field.Kind())
}

// syncsMemberType reports whether values of fields of type t drive the
// user's member type, asking the registered descriptor when there is one.
func (c *Controller) syncsMemberType(t domain.FieldType) bool {
	c.mu.RLock()
	d, ok := c.types[t]
	c.mu.RUnlock()
	if ok && d != nil {
		return d.Info().SyncsMemberType
	}
	return t == c.field.Kind()
}

// FieldValue filters a field value on the general read path. For member type
// fields the raw stored value replaces value when one exists.
func (c *Controller) FieldValue(ctx context.Context, value string, fieldType domain.FieldType, fieldID domain.FieldID, user domain.UserID) string {
	if !c.syncsMemberType(fieldType) {
		return value
	}
	if fieldID != 0 && user != 0 && c.data != nil {
		raw, found, err := c.data.Get(ctx, fieldID, user)
		switch {
		case err != nil:
			c.log.WarnContext(ctx, "read raw field value", "field_id", fieldID, "user_id", user, "error", err)
		case found:
			value = raw
		}
	}
	return c.filter(ctx, value, fieldID, user)
}

// FieldData filters a field value on the low-level field data read path.
func (c *Controller) FieldData(ctx context.Context, value string, fieldID domain.FieldID, user domain.UserID) string {
	if fieldID == 0 {
		return value
	}
	f, err := c.fields.GetByID(ctx, fieldID)
	if err != nil {
		if !errors.Is(err, fieldrepo.ErrNotFound) {
			c.log.WarnContext(ctx, "look up field", "field_id", fieldID, "error", err)
		}
		return value
	}
	if !c.syncsMemberType(f.Type) {
		return value
	}
	return c.filter(ctx, value, fieldID, user)
}

func (c *Controller) filter(ctx context.Context, value string, fieldID domain.FieldID, user domain.UserID) string {
	v := FilteredValue{Value: domain.StripSlashes(value), FieldID: fieldID, UserID: user}
	v = c.hooks.Content.Apply(ctx, v)
	v = c.hooks.Value.Apply(ctx, v)
	return v.Value
}

// SyncOutcome is what AfterDataSave did to the user's member type.
type SyncOutcome string

const (
	SyncNotApplicable SyncOutcome = ""
	SyncAssigned      SyncOutcome = metrics.OutcomeAssigned
	SyncCleared       SyncOutcome = metrics.OutcomeCleared
	SyncSkipped       SyncOutcome = metrics.OutcomeSkipped
	SyncUndecodable   SyncOutcome = metrics.OutcomeUndecodable
)

// AfterDataSave synchronizes the user's member type with a saved member type
// field value.
func (c *Controller) AfterDataSave(ctx context.Context, rec profiledata.Record) error {
	_, err := c.Sync(ctx, rec)
	return err
}

// Sync is AfterDataSave reporting its outcome.
//
// An empty value clears the user's member type. A value naming a registered,
// active member type assigns it; only the first value of a multi-value record
// counts. Anything else leaves the assignment unchanged.
func (c *Controller) Sync(ctx context.Context, rec profiledata.Record) (SyncOutcome, error) {
	f, err := c.fields.GetByID(ctx, rec.FieldID)
	if err != nil {
		if errors.Is(err, fieldrepo.ErrNotFound) {
			return SyncNotApplicable, nil
		}
		return SyncNotApplicable, fmt.Errorf("get field %d: %w", rec.FieldID, err)
	}
	if !c.syncsMemberType(f.Type) {
		return SyncNotApplicable, nil
	}
	log := c.log.With("field_id", rec.FieldID, "user_id", rec.UserID)

	stored, err := domain.DecodeStoredValue(rec.Value)
	if err != nil {
		log.WarnContext(ctx, "member type value not decodable; assignment unchanged", "error", err)
		c.metrics.ObserveSync(metrics.OutcomeUndecodable)
		return SyncUndecodable, nil
	}

	if stored.IsEmpty() {
		if err := c.assigner.SetMemberType(ctx, rec.UserID, ""); err != nil {
			return SyncNotApplicable, fmt.Errorf("clear member type for user %d: %w", rec.UserID, err)
		}
		log.InfoContext(ctx, "member type cleared")
		c.metrics.ObserveSync(metrics.OutcomeCleared)
		return SyncCleared, nil
	}

	if len(stored.Values) > 1 {
		log.DebugContext(ctx, "multiple values stored; using the first", "count", len(stored.Values))
	}
	name := domain.NormalizeMemberTypeName(stored.First())
	mt, err := c.registry.Get(ctx, name)
	if err != nil {
		if !errors.Is(err, membertypes.ErrNotFound) {
			return SyncNotApplicable, fmt.Errorf("get member type %q: %w", name, err)
		}
		log.DebugContext(ctx, "unknown member type; assignment unchanged", "member_type", name)
		c.metrics.ObserveSync(metrics.OutcomeSkipped)
		return SyncSkipped, nil
	}
	if err := c.assigner.SetMemberType(ctx, rec.UserID, mt.Name); err != nil {
		return SyncNotApplicable, fmt.Errorf("set member type for user %d: %w", rec.UserID, err)
	}
	log.InfoContext(ctx, "member type assigned", "member_type", mt.Name)
	c.metrics.ObserveSync(metrics.OutcomeAssigned)
	return SyncAssigned, nil
}

// FieldChildren replaces the child options of a member type field with one
// pseudo-option per registered member type. Other fields keep children.
func (c *Controller) FieldChildren(ctx context.Context, children []domain.ChildOption, forEditing bool, field domain.Field) ([]domain.ChildOption, error) {
	if !c.syncsMemberType(field.Type) {
		return children, nil
	}
	registered, err := c.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list member types: %w", err)
	}
	out := make([]domain.ChildOption, 0, len(registered))
	for _, mt := range registered {
		out = append(out, domain.ChildOption{
			ID:          mt.DBID,
			GroupID:     field.GroupID,
			ParentID:    field.ID,
			Type:        domain.FieldTypeOption,
			Name:        mt.SingularLabel(),
			OptionOrder: 1,
			CanDelete:   true,
		})
	}
	return out, nil
}

// SavedFieldMeta stores the configuration of a member type field saved on the
// field management screen. Selected types that are not registered are
// dropped; the default value must be empty or a registered member type.
func (c *Controller) SavedFieldMeta(ctx context.Context, field domain.Field, meta domain.FieldMeta) (domain.FieldMeta, error) {
	if !c.syncsMemberType(field.Type) {
		return domain.FieldMeta{}, errNotMemberTypeField()
	}

	out := domain.FieldMeta{
		DefaultValue: domain.SanitizeTextField(meta.DefaultValue),
		DisplayType:  meta.DisplayType,
		Restriction:  meta.Restriction,
	}
	details := map[string]any{}
	switch out.DisplayType {
	case "":
		out.DisplayType = domain.DisplayTypeSelect
	case domain.DisplayTypeSelect, domain.DisplayTypeRadio:
	default:
		details["displayType"] = string(out.DisplayType)
	}
	switch out.Restriction {
	case "":
		out.Restriction = domain.RestrictionUnrestricted
	case domain.RestrictionUnrestricted, domain.RestrictionRestricted:
	default:
		details["restriction"] = string(out.Restriction)
	}
	if out.DefaultValue != "" {
		if !c.field.IsValid(ctx, out.DefaultValue) {
			details["defaultValue"] = out.DefaultValue
		} else {
			out.DefaultValue = string(domain.NormalizeMemberTypeName(out.DefaultValue))
		}
	}
	if len(details) > 0 {
		return domain.FieldMeta{}, errValidation("invalid field configuration", details)
	}

	out.SelectedTypes = make([]domain.MemberTypeName, 0, len(meta.SelectedTypes))
	for _, s := range meta.SelectedTypes {
		name := domain.NormalizeMemberTypeName(string(s))
		if _, err := c.registry.Get(ctx, name); err != nil {
			if !errors.Is(err, membertypes.ErrNotFound) {
				return domain.FieldMeta{}, fmt.Errorf("get member type %q: %w", name, err)
			}
			c.log.DebugContext(ctx, "dropping unregistered selected type", "field_id", field.ID, "member_type", name)
			continue
		}
		if !containsName(out.SelectedTypes, name) {
			out.SelectedTypes = append(out.SelectedTypes, name)
		}
	}

	if err := c.fields.SetMeta(ctx, field.ID, out); err != nil {
		return domain.FieldMeta{}, fmt.Errorf("set field %d meta: %w", field.ID, err)
	}
	c.field.Reset()
	return out, nil
}

func containsName(ns []domain.MemberTypeName, n domain.MemberTypeName) bool {
	for _, v := range ns {
		if v == n {
			return true
		}
	}
	return false
}

// SearchHook names a profile search extension point that asks for a field's type.
type SearchHook string

const (
	SearchValidationType SearchHook = "validation"
	SearchHTMLType       SearchHook = "html"
	SearchCriteriaType   SearchHook = "criteria"
	SearchQueryType      SearchHook = "query"
)

// SearchFieldType makes the profile search extension treat member type fields
// as select boxes. Without the extension the type is returned unchanged.
func (c *Controller) SearchFieldType(hook SearchHook, fieldType domain.FieldType, field domain.Field) domain.FieldType {
	if !c.host.ProfileSearch {
		return fieldType
	}
	switch hook {
	case SearchValidationType, SearchHTMLType, SearchCriteriaType, SearchQueryType:
	default:
		return fieldType
	}
	if c.syncsMemberType(field.Type) {
		return domain.FieldTypeSelectbox
	}
	return fieldType
}
