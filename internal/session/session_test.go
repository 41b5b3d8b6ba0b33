package session

import (
	"reflect"
	"testing"

	"github.com/spiffcs/scout/internal/model"
)

func TestDeduplicatorShouldIssue(t *testing.T) {
	a := model.SearchQuery{Filter: model.FilterGoodFirstIssue, Page: 1}.Key()
	b := model.SearchQuery{Filter: model.FilterBountyIssue, Page: 1}.Key()

	steps := []struct {
		key  string
		want bool
	}{
		{a, true},
		{a, false},
		{a, false},
		{b, true},
		{a, true},
		{a, false},
	}

	var d Deduplicator
	for i, s := range steps {
		if got := d.ShouldIssue(s.key); got != s.want {
			t.Errorf("step %d: ShouldIssue(%q) = %v, want %v", i, s.key, got, s.want)
		}
	}
}

func TestDeduplicatorEmptyKeyFirstUse(t *testing.T) {
	var d Deduplicator
	if !d.ShouldIssue("") {
		t.Error("first key must be allowed even if empty")
	}
	if d.ShouldIssue("") {
		t.Error("repeat of empty key must be suppressed")
	}
}

func TestDeduplicatorForget(t *testing.T) {
	var d Deduplicator
	d.ShouldIssue("x")

	d.Forget("y")
	if d.ShouldIssue("x") {
		t.Fatal("Forget of a different key must not clear the tracked key")
	}

	d.Forget("x")
	if _, set := d.Last(); set {
		t.Fatal("Forget of the tracked key must clear it")
	}
	if !d.ShouldIssue("x") {
		t.Error("retry after Forget must be allowed")
	}
}

func TestPageTracker(t *testing.T) {
	pt := NewPageTracker()

	if pt.IsLoaded(1) {
		t.Fatal("page 1 must start unloaded")
	}
	if pt.Highest() != 0 || pt.Next() != 1 {
		t.Fatalf("fresh tracker Highest/Next = %d/%d, want 0/1", pt.Highest(), pt.Next())
	}

	pt.MarkLoaded(1)
	pt.MarkLoaded(3)
	pt.MarkLoaded(2)

	if !pt.IsLoaded(2) || pt.IsLoaded(4) {
		t.Error("IsLoaded mismatch after marking 1..3")
	}
	if pt.Highest() != 3 || pt.Next() != 4 {
		t.Errorf("Highest/Next = %d/%d, want 3/4", pt.Highest(), pt.Next())
	}
	if got := pt.Loaded(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("Loaded() = %v", got)
	}

	pt.Reset()
	if pt.IsLoaded(1) || pt.IsLoaded(3) || len(pt.Loaded()) != 0 {
		t.Error("Reset must return to {1: false}")
	}
	if _, ok := pt.pages[1]; !ok {
		t.Error("Reset must keep an explicit entry for page 1")
	}
}

func TestComputedSet(t *testing.T) {
	c := ComputedSet{}
	key := model.EnrichmentTask{RepoFullName: "cli/cli", Filter: model.FilterMajorIssue}.Key()

	if !c.Claim(key) {
		t.Fatal("first claim must succeed")
	}
	if c.Claim(key) {
		t.Fatal("second claim must fail")
	}
	if !c.Has(key) {
		t.Fatal("Has() = false after Claim")
	}

	c.Release(key)
	if c.Has(key) || !c.Claim(key) {
		t.Fatal("Release must allow a new claim")
	}

	c.Reset()
	if len(c) != 0 {
		t.Errorf("Reset left %d keys", len(c))
	}
}
