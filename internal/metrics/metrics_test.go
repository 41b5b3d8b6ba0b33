package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	CacheLookupsTotal.WithLabelValues("pages", "hit").Inc()
	EnrichmentTasksTotal.WithLabelValues(OutcomeOK).Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"scout_cache_lookups_total", "scout_enrichment_tasks_total"} {
		if !names[want] {
			t.Errorf("expected %s to be gathered, got %v", want, names)
		}
	}
}

func TestRegisterTwicePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)
	defer func() {
		if recover() == nil {
			t.Error("expected duplicate registration to panic")
		}
	}()
	Register(reg)
}

func TestCounterValues(t *testing.T) {
	before := testutil.ToFloat64(DedupSuppressedTotal)
	DedupSuppressedTotal.Inc()
	if got := testutil.ToFloat64(DedupSuppressedTotal); got != before+1 {
		t.Errorf("DedupSuppressedTotal = %v, want %v", got, before+1)
	}
}
