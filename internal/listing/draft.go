// Package listing stages a new-property submission and sequences the two
// dependent catalog writes: create the listing, then attach its media.
package listing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"propscout/internal/catalog"
)

var validate = validator.New()

// Draft is the mutable staging object for a new listing. All user-editable
// fields hold raw text; coercion to numbers happens in Normalize, at
// submission time, so partially typed input never blocks editing.
type Draft struct {
	Title        string
	Description  string
	Address      string
	City         string
	State        string
	Pincode      string
	Price        string
	Phone        string
	Bedrooms     string
	Area         string
	AreaUnit     catalog.AreaUnit
	PropertyType catalog.PropertyType
	ForType      catalog.ForType
	Images       []catalog.MediaFile
}

// NewDraft returns a draft with the default selections.
func NewDraft() *Draft {
	return &Draft{
		AreaUnit:     catalog.UnitSqft,
		PropertyType: catalog.TypeHouse,
		ForType:      catalog.ForSale,
	}
}

// Reset restores the draft to its defaults and clears the image batch.
// The submitter identity lives on the workflow, not the draft, so nothing
// identity-related is touched here.
func (d *Draft) Reset() {
	*d = *NewDraft()
}

// Normalize coerces the draft into a create payload. Price is required: an
// absent or unparseable price is a validation error and no payload is
// produced. Unparseable bedroom or area input is treated as "not specified"
// rather than an error, and the bedroom count is omitted entirely when the
// category is PLOT regardless of what was typed.
func (d *Draft) Normalize(userID string) (catalog.CreateRequest, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(d.Price), 64)
	if err != nil {
		return catalog.CreateRequest{}, fmt.Errorf("price %q is not a number", d.Price)
	}

	req := catalog.CreateRequest{
		Title:        strings.TrimSpace(d.Title),
		Description:  strings.TrimSpace(d.Description),
		Address:      strings.TrimSpace(d.Address),
		City:         strings.TrimSpace(d.City),
		State:        strings.TrimSpace(d.State),
		Pincode:      strings.TrimSpace(d.Pincode),
		Price:        price,
		PropertyType: d.PropertyType,
		ForType:      d.ForType,
		AreaUnit:     d.AreaUnit,
		Phone:        strings.TrimSpace(d.Phone),
		UserID:       userID,
	}

	if d.PropertyType != catalog.TypePlot {
		if n, err := strconv.Atoi(strings.TrimSpace(d.Bedrooms)); err == nil && n >= 0 {
			req.Bedrooms = &n
		}
	}
	if a, err := strconv.ParseFloat(strings.TrimSpace(d.Area), 64); err == nil && a > 0 {
		req.Area = &a
	}

	if err := validate.Struct(req); err != nil {
		return catalog.CreateRequest{}, fmt.Errorf("invalid listing: %w", err)
	}
	return req, nil
}
