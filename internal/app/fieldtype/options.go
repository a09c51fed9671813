package fieldtype

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
)

// noneValue in a value set selects the placeholder option.
const noneValue = "none"

// Option is one member type offered by the field.
type Option struct {
	Name  domain.MemberTypeName
	Label string
}

// Options is an ordered name → label mapping.
type Options []Option

func (o Options) clone() Options {
	if o == nil {
		return nil
	}
	return append(Options(nil), o...)
}

// Names returns the option names in order.
func (o Options) Names() []domain.MemberTypeName {
	out := make([]domain.MemberTypeName, 0, len(o))
	for _, opt := range o {
		out = append(out, opt.Name)
	}
	return out
}

// Label returns the label for name.
func (o Options) Label(name domain.MemberTypeName) (string, bool) {
	for _, opt := range o {
		if opt.Name == name {
			return opt.Label, true
		}
	}
	return "", false
}

// Restrict applies the field's restriction metadata. Under restriction only
// options listed in SelectedTypes remain, in the order of o; an empty
// selection leaves nothing.
func (o Options) Restrict(meta domain.FieldMeta) Options {
	if !meta.IsRestricted() {
		return o.clone()
	}
	out := make(Options, 0, len(o))
	for _, opt := range o {
		if meta.Allows(opt.Name) {
			out = append(out, opt)
		}
	}
	return out
}

// MemberTypes returns every registered member type as name → singular label,
// in registration order, after the AllowedTypes hook. The result is memoized
// in the request cache when the context carries one, otherwise in the field's
// own cache until Reset.
func (f *MemberTypeField) MemberTypes(ctx context.Context) (Options, error) {
	c, ok := cacheFrom(ctx)
	if !ok {
		c = f.cache
	}
	return c.load(ctx, f.loadMemberTypes)
}

// Reset drops the field's memoized member type list.
func (f *MemberTypeField) Reset() { f.cache.Reset() }

func (f *MemberTypeField) loadMemberTypes(ctx context.Context) (Options, error) {
	registered, err := f.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list member types: %w", err)
	}
	if len(registered) == 0 {
		return Options{}, nil
	}
	opts := make(Options, 0, len(registered))
	for _, mt := range registered {
		opts = append(opts, Option{Name: mt.Name, Label: mt.SingularLabel()})
	}
	out := f.hooks.AllowedTypes.Apply(ctx, AllowedTypes{Options: opts, Registered: registered})
	return out.Options, nil
}

// OptionsArgs selects whose values EditFieldOptionsHTML pre-selects.
type OptionsArgs struct {
	// UserID is the profile owner; zero means the displayed user.
	UserID domain.UserID

	// Submission is the resubmitted form, if the page is shown again after a failed save.
	Submission url.Values
}

// valueSet computes the values to pre-select: a resubmitted value wins, then
// the configured default when nothing is stored, then the stored value.
func (f *MemberTypeField) valueSet(ctx context.Context, field domain.Field, meta domain.FieldMeta, args OptionsArgs) ([]string, error) {
	if vals := submitted(args.Submission, field.ID); len(vals) > 0 {
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			out = append(out, domain.SanitizeTextField(v))
		}
		return nonEmpty(out), nil
	}

	user := args.UserID
	if user == 0 {
		user = f.displayedUser(ctx)
	}
	var (
		raw   string
		found bool
	)
	if user != 0 {
		var err error
		raw, found, err = f.data.Get(ctx, field.ID, user)
		if err != nil {
			return nil, fmt.Errorf("get field %d value for user %d: %w", field.ID, user, err)
		}
	}
	if (!found || raw == "") && meta.DefaultValue != "" {
		return []string{meta.DefaultValue}, nil
	}

	stored, err := domain.DecodeStoredValue(raw)
	if err != nil {
		f.log.WarnContext(ctx, "stored value not decodable; using raw value", "field_id", field.ID, "user_id", user, "error", err)
		return nonEmpty([]string{raw}), nil
	}
	return nonEmpty(stored.Values), nil
}

func (f *MemberTypeField) displayedUser(ctx context.Context) domain.UserID {
	if f.session == nil {
		return 0
	}
	id, ok := f.session.DisplayedUserID(ctx)
	if !ok {
		return 0
	}
	return id
}

// submitted returns the resubmitted values for the field, accepting both
// "field_<id>" and "field_<id>[]". All-empty submissions count as none.
func submitted(sub url.Values, id domain.FieldID) []string {
	if sub == nil {
		return nil
	}
	name := id.InputName()
	vals := append(append([]string(nil), sub[name]...), sub[name+"[]"]...)
	if len(nonEmpty(vals)) == 0 {
		return nil
	}
	return vals
}

func nonEmpty(vs []string) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func contains(vs []string, s string) bool {
	for _, v := range vs {
		if v == s {
			return true
		}
	}
	return false
}
