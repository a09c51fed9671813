// Package fieldtype implements the member type profile field: validation of
// submitted values and rendering of its edit and admin controls.
package fieldtype

import (
	"context"
	"errors"
	"html/template"
	"log/slog"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/platform/logging"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/platform/metrics"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/fieldrepo"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/membertypes"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/profiledata"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/session"
)

// Info describes a field type to the host's field type registry.
type Info struct {
	Category string
	Name     string

	SupportsMultipleDefaults bool
	AcceptsNullValue         bool
	SupportsOptions          bool

	// SyncsMemberType marks field types whose saved value drives the user's member type.
	SyncsMemberType bool
}

// Descriptor is the behavior contract the host expects from a field type.
type Descriptor interface {
	Kind() domain.FieldType
	Info() Info

	IsValid(ctx context.Context, value string) bool
	EditFieldHTML(ctx context.Context, f domain.Field, props EditProps) (template.HTML, error)
	AdminFieldHTML(ctx context.Context, f domain.Field, props AdminProps) (template.HTML, error)
	AdminNewFieldHTML(ctx context.Context, f domain.Field, controlType string) (template.HTML, error)
}

// Deps are the host services the member type field consumes.
type Deps struct {
	Registry membertypes.Registry
	Fields   fieldrepo.Repository
	Data     profiledata.Repository
	Session  session.DisplayedUser

	// Optional.
	Hooks   *Hooks
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// MemberTypeField is the Descriptor for domain.FieldTypeMemberType.
type MemberTypeField struct {
	registry membertypes.Registry
	fields   fieldrepo.Repository
	data     profiledata.Repository
	session  session.DisplayedUser

	hooks   *Hooks
	log     *slog.Logger
	metrics *metrics.Metrics

	info  Info
	cache *Cache
}

var _ Descriptor = (*MemberTypeField)(nil)

func New(d Deps) *MemberTypeField {
	h := d.Hooks
	if h == nil {
		h = &Hooks{}
	}
	l := d.Logger
	if l == nil {
		l = logging.L()
	}
	f := &MemberTypeField{
		registry: d.Registry,
		fields:   d.Fields,
		data:     d.Data,
		session:  d.Session,
		hooks:    h,
		log:      l.With("field_type", string(domain.FieldTypeMemberType)),
		metrics:  d.Metrics,
		info: Info{
			Category:                 "Multi Fields",
			Name:                     "Member Type Select Box",
			SupportsMultipleDefaults: false,
			AcceptsNullValue:         true,
			SupportsOptions:          false,
			SyncsMemberType:          true,
		},
		cache: NewCache(),
	}
	h.Constructed.Do(context.Background(), f)
	return f
}

func (f *MemberTypeField) Kind() domain.FieldType { return domain.FieldTypeMemberType }

func (f *MemberTypeField) Info() Info { return f.info }

// IsValid reports whether value may be stored in a member type field: the
// empty value is always accepted, anything else must name a registered,
// active member type once normalized.
func (f *MemberTypeField) IsValid(ctx context.Context, value string) bool {
	if value == "" {
		return true
	}
	_, err := f.registry.Get(ctx, domain.NormalizeMemberTypeName(value))
	if err == nil {
		return true
	}
	if !errors.Is(err, membertypes.ErrNotFound) {
		f.log.WarnContext(ctx, "member type lookup failed", "value", value, "error", err)
	}
	return false
}
