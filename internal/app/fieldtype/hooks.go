package fieldtype

import (
	"html/template"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/platform/hooks"
)

// AllowedTypes flows through Hooks.AllowedTypes before the member type list is memoized.
type AllowedTypes struct {
	Options    Options
	Registered []domain.MemberType
}

// OptionMarkup flows through Hooks.OptionHTML once per rendered option.
type OptionMarkup struct {
	HTML       template.HTML
	MemberType domain.MemberTypeName
	FieldID    domain.FieldID
	Selected   bool
}

// Hooks are the extension points of the member type field.
type Hooks struct {
	// Constructed observes every new MemberTypeField.
	Constructed hooks.Action[*MemberTypeField]

	// AllowedTypes customizes the name → label list offered by every member type field.
	AllowedTypes hooks.Chain[AllowedTypes]

	// OptionHTML customizes the markup of a single select option or radio input.
	OptionHTML hooks.Chain[OptionMarkup]
}
