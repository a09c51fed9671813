package domain

import "strconv"

// UserID identifies a profile owner in the host.
type UserID int64

// FieldID identifies a profile field definition.
type FieldID int64

// GroupID identifies the profile field group a field belongs to.
type GroupID int64

func (id FieldID) String() string { return strconv.FormatInt(int64(id), 10) }

// InputName is the form control name the host uses for a field ("field_<id>").
func (id FieldID) InputName() string { return "field_" + id.String() }
