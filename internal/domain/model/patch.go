package model

// PatchField is a tri-state optional string: absent (Set false), explicit
// null (Set true, Valid false), or a value. Draft fields can be legitimately
// nulled, so absence cannot be encoded as nil.
type PatchField struct {
	Set   bool
	Valid bool
	Value string
}

// PatchValue returns a field carrying a value.
func PatchValue(v string) PatchField {
	return PatchField{Set: true, Valid: true, Value: v}
}

// PatchNull returns a field that clears the column.
func PatchNull() PatchField {
	return PatchField{Set: true}
}

// Ptr renders the field as a nullable column value. Only meaningful when Set.
func (f PatchField) Ptr() *string {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// DraftPatch describes a partial update of application draft fields, one
// tri-state field per mutable column.
type DraftPatch struct {
	Motivation   PatchField
	PortfolioURL PatchField
}

// Empty reports whether the patch would change nothing.
func (p DraftPatch) Empty() bool {
	return !p.Motivation.Set && !p.PortfolioURL.Set
}
