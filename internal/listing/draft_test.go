package listing

import (
	"testing"

	"propscout/internal/catalog"
)

func TestNormalize_CoercesNumericFields(t *testing.T) {
	d := NewDraft()
	d.Title = "2BHK in Baner"
	d.Price = "25000"
	d.Bedrooms = "2"
	d.Area = "900"
	d.PropertyType = catalog.TypeApartment
	d.ForType = catalog.ForRent

	req, err := d.Normalize("u1")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if req.Price != 25000 {
		t.Errorf("expected price 25000, got %v", req.Price)
	}
	if req.Bedrooms == nil || *req.Bedrooms != 2 {
		t.Errorf("expected 2 bedrooms, got %v", req.Bedrooms)
	}
	if req.Area == nil || *req.Area != 900 {
		t.Errorf("expected area 900, got %v", req.Area)
	}
	if req.UserID != "u1" {
		t.Errorf("expected userId u1, got %q", req.UserID)
	}
}

func TestNormalize_MissingPriceIsHardError(t *testing.T) {
	d := NewDraft()
	if _, err := d.Normalize("u1"); err == nil {
		t.Fatal("absent price must be a validation error")
	}

	d.Price = "twenty"
	if _, err := d.Normalize("u1"); err == nil {
		t.Fatal("unparseable price must be a validation error")
	}
}

func TestNormalize_UnparseableOptionalsAreNotSpecified(t *testing.T) {
	d := NewDraft()
	d.Price = "5000"
	d.Bedrooms = "two"
	d.Area = "big"

	req, err := d.Normalize("u1")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if req.Bedrooms != nil {
		t.Errorf("unparseable bedrooms must be omitted, got %v", *req.Bedrooms)
	}
	if req.Area != nil {
		t.Errorf("unparseable area must be omitted, got %v", *req.Area)
	}
}

func TestNormalize_PlotOmitsBedrooms(t *testing.T) {
	d := NewDraft()
	d.Price = "1500000"
	d.PropertyType = catalog.TypePlot
	d.Bedrooms = "3" // stale input from before the category change

	req, err := d.Normalize("u1")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if req.Bedrooms != nil {
		t.Errorf("PLOT must never carry a bedroom count, got %v", *req.Bedrooms)
	}
}

func TestNormalize_RejectsInvalidEnumCombination(t *testing.T) {
	d := NewDraft()
	d.Price = "5000"
	d.PropertyType = "CASTLE"
	if _, err := d.Normalize("u1"); err == nil {
		t.Fatal("unknown property category must fail validation")
	}
}

func TestReset_RestoresDefaultsAndClearsImages(t *testing.T) {
	d := NewDraft()
	d.Title = "x"
	d.Price = "1"
	d.PropertyType = catalog.TypePlot
	d.Images = []catalog.MediaFile{{Name: "a.jpg"}}

	d.Reset()
	if d.Title != "" || d.Price != "" || len(d.Images) != 0 {
		t.Errorf("Reset left data behind: %+v", d)
	}
	if d.PropertyType != catalog.TypeHouse || d.ForType != catalog.ForSale || d.AreaUnit != catalog.UnitSqft {
		t.Errorf("Reset must restore default selections, got %+v", d)
	}
}
