package domain_test

import (
	"strings"
	"testing"

	"otx2crits/internal/domain"
)

func TestSummaryAdd(t *testing.T) {
	var s domain.SyncSummary
	s.Add(domain.ImportResult{IndicatorsCreated: 2, IndicatorsReused: 1, IndicatorsSkipped: 3, EdgesCreated: 3})
	s.Add(domain.ImportResult{IndicatorsCreated: 1, EdgesCreated: 1})

	if s.Imported != 2 {
		t.Fatalf("expected 2 imported, got %d", s.Imported)
	}
	if s.IndicatorsCreated != 3 || s.IndicatorsReused != 1 || s.IndicatorsSkipped != 3 || s.EdgesCreated != 4 {
		t.Fatalf("unexpected counts %+v", s)
	}
}

func TestSummaryStringCarriesCounts(t *testing.T) {
	s := domain.SyncSummary{RunID: "r1", Candidates: 5, Imported: 2, Failed: 1}
	out := s.String()
	for _, want := range []string{"run r1", "candidates=5", "imported=2", "failed=1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary %q missing %q", out, want)
		}
	}
}
