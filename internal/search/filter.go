// Package search owns the structured filter query and the coordinator that
// reconciles filter searches against the catalog with last-request-wins
// ordering.
package search

import "net/url"

// FilterQuery is the structured search query. Every field is optional and
// stored as raw text; numeric fields are coerced at request time, never at
// keystroke time, so partially typed input never blocks editing. An all-empty
// query means "fetch everything".
type FilterQuery struct {
	City         string
	ForType      string
	PropertyType string
	MinPrice     string
	MaxPrice     string
	Bedrooms     string
}

// Filter field names accepted by SetField.
const (
	FieldCity         = "city"
	FieldForType      = "forType"
	FieldPropertyType = "propertyType"
	FieldMinPrice     = "minPrice"
	FieldMaxPrice     = "maxPrice"
	FieldBedrooms     = "bedrooms"
)

// FieldNames lists the filter fields in display order.
var FieldNames = []string{
	FieldCity, FieldForType, FieldPropertyType,
	FieldMinPrice, FieldMaxPrice, FieldBedrooms,
}

// SetField returns a copy of the query with one field replaced. Unknown
// field names leave the query unchanged.
func (q FilterQuery) SetField(name, value string) FilterQuery {
	switch name {
	case FieldCity:
		q.City = value
	case FieldForType:
		q.ForType = value
	case FieldPropertyType:
		q.PropertyType = value
	case FieldMinPrice:
		q.MinPrice = value
	case FieldMaxPrice:
		q.MaxPrice = value
	case FieldBedrooms:
		q.Bedrooms = value
	}
	return q
}

// Field returns the current value of one field.
func (q FilterQuery) Field(name string) string {
	switch name {
	case FieldCity:
		return q.City
	case FieldForType:
		return q.ForType
	case FieldPropertyType:
		return q.PropertyType
	case FieldMinPrice:
		return q.MinPrice
	case FieldMaxPrice:
		return q.MaxPrice
	case FieldBedrooms:
		return q.Bedrooms
	}
	return ""
}

// IsEmpty reports whether no field constrains the search.
func (q FilterQuery) IsEmpty() bool {
	return q == FilterQuery{}
}

// Params builds the outgoing request parameters. Empty fields are omitted
// entirely so they never reach the catalog as empty-string constraints.
func (q FilterQuery) Params() url.Values {
	params := url.Values{}
	for _, name := range FieldNames {
		if v := q.Field(name); v != "" {
			params.Set(name, v)
		}
	}
	return params
}
