package controller

import (
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/platform/hooks"
)

// FilteredValue flows through the read-time value filters.
type FilteredValue struct {
	Value   string
	FieldID domain.FieldID
	UserID  domain.UserID
}

// Hooks are the read-time extension points of member type field values.
type Hooks struct {
	// Content runs first, on the slash-stripped stored value.
	Content hooks.Chain[FilteredValue]

	// Value runs on the output of Content and has the final say.
	Value hooks.Chain[FilteredValue]
}
