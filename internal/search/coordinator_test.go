package search

import (
	"errors"
	"testing"

	"propscout/internal/catalog"
)

func summaries(ids ...string) []catalog.PropertySummary {
	out := make([]catalog.PropertySummary, len(ids))
	for i, id := range ids {
		out[i] = catalog.PropertySummary{ID: id}
	}
	return out
}

func TestCoordinator_ResolvePopulated(t *testing.T) {
	c := NewCoordinator(nil)
	d := c.Begin()

	if c.State() != StateLoading {
		t.Fatalf("expected loading after Begin, got %v", c.State())
	}
	if !c.Resolve(d, summaries("p1", "p2"), nil) {
		t.Fatal("current dispatch must be applied")
	}
	if c.State() != StatePopulated {
		t.Errorf("expected populated, got %v", c.State())
	}
	if got := c.Results(); len(got) != 2 || got[0].ID != "p1" || got[1].ID != "p2" {
		t.Errorf("results must keep catalog order, got %+v", got)
	}
}

func TestCoordinator_ResolveEmpty(t *testing.T) {
	c := NewCoordinator(nil)
	d := c.Begin()
	c.Resolve(d, nil, nil)
	if c.State() != StateEmpty {
		t.Errorf("expected empty for zero results, got %v", c.State())
	}
}

func TestCoordinator_FailureResolvesToEmpty(t *testing.T) {
	c := NewCoordinator(nil)
	d := c.Begin()
	if !c.Resolve(d, nil, errors.New("boom")) {
		t.Fatal("failure of the current dispatch must still be applied")
	}
	if c.State() != StateEmpty {
		t.Errorf("failed search must present as empty, got %v", c.State())
	}
	if len(c.Results()) != 0 {
		t.Error("failed search must clear results")
	}
}

func TestCoordinator_LastRequestWins(t *testing.T) {
	c := NewCoordinator(nil)
	first := c.Begin()
	second := c.Begin()

	// Second search resolves before the first.
	if !c.Resolve(second, summaries("new"), nil) {
		t.Fatal("latest dispatch must be applied")
	}
	if c.Resolve(first, summaries("old"), nil) {
		t.Fatal("stale dispatch must be dropped")
	}
	if got := c.Results(); len(got) != 1 || got[0].ID != "new" {
		t.Errorf("displayed state must reflect the latest search, got %+v", got)
	}
	if c.State() != StatePopulated {
		t.Errorf("expected populated, got %v", c.State())
	}
}

func TestCoordinator_StaleFailureCannotClobberNewerResult(t *testing.T) {
	c := NewCoordinator(nil)
	first := c.Begin()
	second := c.Begin()

	c.Resolve(second, summaries("p1"), nil)
	if c.Resolve(first, nil, errors.New("timeout")) {
		t.Fatal("stale failure must be dropped")
	}
	if c.State() != StatePopulated {
		t.Errorf("newer result must survive a stale failure, got %v", c.State())
	}
}

func TestCoordinator_ResetClearsQueryAndRedispatches(t *testing.T) {
	c := NewCoordinator(nil)
	c.SetField(FieldCity, "Pune")
	c.SetField(FieldBedrooms, "3")
	before := c.Begin()

	d := c.Reset()
	if !c.Query().IsEmpty() {
		t.Error("Reset must clear every filter field")
	}
	if d <= before {
		t.Error("Reset must dispatch a new search")
	}
	if c.State() != StateLoading {
		t.Errorf("expected loading after Reset, got %v", c.State())
	}
}
