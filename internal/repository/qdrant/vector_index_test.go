package qdrant

import (
	"testing"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
)

func TestBuildFilterEmpty(t *testing.T) {
	if f := buildFilter(nil, domain.SearchFilters{}); f != nil {
		t.Errorf("expected nil filter, got %v", f)
	}
}

func TestBuildFilterExcludesAndRanges(t *testing.T) {
	minPrice := int64(1000)
	f := buildFilter([]int64{5, 7}, domain.SearchFilters{Category: "Electronics", MinPrice: &minPrice})

	if len(f.GetMustNot()) != 1 {
		t.Fatalf("must_not = %v", f.GetMustNot())
	}
	ids := f.GetMustNot()[0].GetHasId().GetHasId()
	if len(ids) != 2 || ids[0].GetNum() != 5 || ids[1].GetNum() != 7 {
		t.Errorf("excluded ids = %v", ids)
	}

	if len(f.GetMust()) != 2 {
		t.Fatalf("must = %v", f.GetMust())
	}
	if got := f.GetMust()[0].GetField().GetMatch().GetKeyword(); got != "Electronics" {
		t.Errorf("category match = %q", got)
	}
	r := f.GetMust()[1].GetField().GetRange()
	if r.GetGte() != 1000 || r.Lte != nil {
		t.Errorf("range = %v", r)
	}
}

func TestPointIDs(t *testing.T) {
	ids := pointIDs([]int64{3, 1})
	if len(ids) != 2 || ids[0].GetNum() != 3 || ids[1].GetNum() != 1 {
		t.Errorf("ids = %v", ids)
	}
	if len(pointIDs(nil)) != 0 {
		t.Error("expected no ids")
	}
}
