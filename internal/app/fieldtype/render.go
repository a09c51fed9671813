package fieldtype

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"sort"
	"strings"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
)

var markup = template.Must(template.New("fieldtype").Parse(`
{{- define "placeholder" -}}
<option value=""{{if .}} selected="selected"{{end}}>----</option>
{{- end -}}

{{- define "option" -}}
<option{{if .Selected}} selected="selected"{{end}} value="{{.Value}}">{{.Label}}</option>
{{- end -}}

{{- define "radio" -}}
<label for="option_{{.Value}}"><input{{if .Selected}} checked="checked"{{end}} type="radio" name="{{.InputName}}" id="option_{{.Value}}" value="{{.Value}}">{{.Label}}</label>
{{- end -}}

{{- define "edit" -}}
<legend id="{{.InputName}}-1">{{.Name}}{{if .Required}} <span class="bp-required-field-label">(required)</span>{{end}}</legend>
{{range .Errors}}<div class="error" role="alert">{{.}}</div>
{{end -}}
{{if .Radio -}}
<div class="input-options radio-button-options" id="{{.InputName}}" role="radiogroup" aria-labelledby="{{.InputName}}-1" aria-describedby="{{.InputName}}-3"{{.Attrs}}>{{.Options}}</div>
{{- else -}}
<select id="{{.InputName}}" name="{{.InputName}}"{{.Attrs}} aria-labelledby="{{.InputName}}-1" aria-describedby="{{.InputName}}-3">{{.Options}}</select>
{{- end}}
{{if .Description}}<p class="description" id="{{.InputName}}-3">{{.Description}}</p>
{{end -}}
{{- end -}}

{{- define "admin" -}}
<label for="{{.InputName}}" class="screen-reader-text">Select</label>
{{if .Radio -}}
<div class="input-options radio-button-options" id="{{.InputName}}" role="radiogroup"{{.Attrs}}>{{.Options}}</div>
{{- else -}}
<select id="{{.InputName}}" name="{{.InputName}}"{{.Attrs}}>{{.Options}}</select>
{{- end -}}
{{- end -}}
`))

// EditProps customize EditFieldHTML.
type EditProps struct {
	// UserID overrides the displayed user whose stored value is pre-selected.
	UserID domain.UserID

	// Submission is the resubmitted form after a failed save, if any.
	Submission url.Values

	// Attrs are extra attributes for the control element. Event handler
	// attributes and the attributes the control sets itself are ignored.
	Attrs map[string]string

	// Errors are validation messages shown above the control.
	Errors []string
}

// AdminProps customize AdminFieldHTML.
type AdminProps struct {
	Attrs map[string]string
}

type optionView struct {
	Value     string
	Label     string
	Selected  bool
	InputName string
}

type controlView struct {
	InputName   string
	Name        string
	Description string
	Required    bool
	Radio       bool
	Errors      []string
	Attrs       template.HTMLAttr
	Options     template.HTML
}

// EditFieldHTML renders the labelled edit control for f.
func (f *MemberTypeField) EditFieldHTML(ctx context.Context, field domain.Field, props EditProps) (template.HTML, error) {
	meta, err := f.fields.GetMeta(ctx, field.ID)
	if err != nil {
		return "", fmt.Errorf("get field %d meta: %w", field.ID, err)
	}
	opts, err := f.editOptions(ctx, field, meta, OptionsArgs{UserID: props.UserID, Submission: props.Submission})
	if err != nil {
		return "", err
	}
	f.metrics.ObserveRender("edit")
	return execute("edit", controlView{
		InputName:   field.ID.InputName(),
		Name:        field.Name,
		Description: field.Description,
		Required:    field.IsRequired,
		Radio:       meta.EffectiveDisplayType() == domain.DisplayTypeRadio,
		Errors:      props.Errors,
		Attrs:       attrs(props.Attrs),
		Options:     opts,
	})
}

// EditFieldOptionsHTML renders the options of f: a placeholder plus one option
// per allowed member type for select display, one radio input per allowed
// member type for radio display.
func (f *MemberTypeField) EditFieldOptionsHTML(ctx context.Context, field domain.Field, args OptionsArgs) (template.HTML, error) {
	meta, err := f.fields.GetMeta(ctx, field.ID)
	if err != nil {
		return "", fmt.Errorf("get field %d meta: %w", field.ID, err)
	}
	return f.editOptions(ctx, field, meta, args)
}

func (f *MemberTypeField) editOptions(ctx context.Context, field domain.Field, meta domain.FieldMeta, args OptionsArgs) (template.HTML, error) {
	values, err := f.valueSet(ctx, field, meta, args)
	if err != nil {
		return "", err
	}
	all, err := f.MemberTypes(ctx)
	if err != nil {
		return "", err
	}
	opts := all.Restrict(meta)
	if meta.EffectiveDisplayType() == domain.DisplayTypeRadio {
		return f.radioOptions(ctx, field, values, opts)
	}
	return f.selectOptions(ctx, field, values, opts)
}

func (f *MemberTypeField) selectOptions(ctx context.Context, field domain.Field, values []string, opts Options) (template.HTML, error) {
	var b strings.Builder
	placeholder, err := execute("placeholder", len(values) == 0 || contains(values, noneValue))
	if err != nil {
		return "", err
	}
	b.WriteString(string(placeholder))

	for _, opt := range opts {
		selected := contains(values, domain.SanitizeTextField(string(opt.Name)))
		html, err := execute("option", optionView{
			Value:    domain.StripSlashes(string(opt.Name)),
			Label:    opt.Label,
			Selected: selected,
		})
		if err != nil {
			return "", err
		}
		b.WriteString(string(f.filterOption(ctx, field, opt, selected, html)))
	}
	return template.HTML(b.String()), nil
}

func (f *MemberTypeField) radioOptions(ctx context.Context, field domain.Field, values []string, opts Options) (template.HTML, error) {
	var b strings.Builder
	for _, opt := range opts {
		selected := contains(values, domain.SanitizeTextField(string(opt.Name)))
		html, err := execute("radio", optionView{
			Value:     domain.StripSlashes(string(opt.Name)),
			Label:     domain.StripSlashes(opt.Label),
			Selected:  selected,
			InputName: field.ID.InputName(),
		})
		if err != nil {
			return "", err
		}
		b.WriteString(string(f.filterOption(ctx, field, opt, selected, html)))
	}
	return template.HTML(b.String()), nil
}

func (f *MemberTypeField) filterOption(ctx context.Context, field domain.Field, opt Option, selected bool, html template.HTML) template.HTML {
	out := f.hooks.OptionHTML.Apply(ctx, OptionMarkup{
		HTML:       html,
		MemberType: opt.Name,
		FieldID:    field.ID,
		Selected:   selected,
	})
	return out.HTML
}

// AdminFieldHTML renders f on the field management screen: every registered
// member type, nothing pre-selected beyond the placeholder.
func (f *MemberTypeField) AdminFieldHTML(ctx context.Context, field domain.Field, props AdminProps) (template.HTML, error) {
	meta, err := f.fields.GetMeta(ctx, field.ID)
	if err != nil {
		return "", fmt.Errorf("get field %d meta: %w", field.ID, err)
	}
	all, err := f.MemberTypes(ctx)
	if err != nil {
		return "", err
	}
	radio := meta.EffectiveDisplayType() == domain.DisplayTypeRadio
	var opts template.HTML
	if radio {
		opts, err = f.radioOptions(ctx, field, nil, all)
	} else {
		opts, err = f.selectOptions(ctx, field, nil, all)
	}
	if err != nil {
		return "", err
	}
	f.metrics.ObserveRender("admin")
	return execute("admin", controlView{
		InputName: field.ID.InputName(),
		Radio:     radio,
		Attrs:     attrs(props.Attrs),
		Options:   opts,
	})
}

// AdminNewFieldHTML renders nothing: the options of a member type field come
// from the registered member types and cannot be edited as child options.
func (f *MemberTypeField) AdminNewFieldHTML(ctx context.Context, field domain.Field, controlType string) (template.HTML, error) {
	return "", nil
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markup.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

var reservedAttrs = map[string]bool{
	"id":               true,
	"name":             true,
	"type":             true,
	"aria-labelledby":  true,
	"aria-describedby": true,
}

// attrs renders extra control attributes in a stable order with escaped values.
// Keys are matched case-insensitively; when two keys normalize to the same
// name the lexically smallest original wins.
func attrs(in map[string]string) template.HTMLAttr {
	if len(in) == 0 {
		return ""
	}
	orig := make(map[string]string, len(in))
	for raw := range in {
		k := strings.ToLower(strings.TrimSpace(raw))
		if !validAttrName(k) || reservedAttrs[k] || strings.HasPrefix(k, "on") {
			continue
		}
		if prev, ok := orig[k]; !ok || raw < prev {
			orig[k] = raw
		}
	}
	keys := make([]string, 0, len(orig))
	for k := range orig {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(template.HTMLEscapeString(in[orig[k]]))
		b.WriteByte('"')
	}
	return template.HTMLAttr(b.String())
}

func validAttrName(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9', r == '-', r == '_', r == ':':
		default:
			return false
		}
	}
	return true
}
