package recur

import (
	"testing"
	"time"

	"github.com/sandeepkv93/memoria/internal/model"
)

var refNow = time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)

func recurringTask(id int64, due, rule string) model.Task {
	return model.Task{
		ID:      id,
		Title:   "weekly review",
		Due:     due,
		Created: refNow,
		RRule:   rule,
	}
}

func TestExpandWeeklyCount(t *testing.T) {
	task := recurringTask(5, "2024-01-01T09:00:00Z", "FREQ=WEEKLY;COUNT=4")

	occs, err := Expand(task, refNow, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occs) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(occs))
	}

	wantIDs := []string{
		"5_r_20240101_090000",
		"5_r_20240108_090000",
		"5_r_20240115_090000",
		"5_r_20240122_090000",
	}
	for i, occ := range occs {
		if occ.DisplayID() != wantIDs[i] {
			t.Fatalf("occurrence %d: id %q want %q", i, occ.DisplayID(), wantIDs[i])
		}
		if !occ.Recurring {
			t.Fatalf("occurrence %d not flagged recurring", i)
		}
		if occ.ParentID != 5 {
			t.Fatalf("occurrence %d: parent %d", i, occ.ParentID)
		}
		if occ.Task.Title != task.Title {
			t.Fatalf("occurrence %d: title %q", i, occ.Task.Title)
		}
		if occ.At == nil || occ.Task.Due != occ.At.Format(time.RFC3339) {
			t.Fatalf("occurrence %d: due %q does not match instant %v", i, occ.Task.Due, occ.At)
		}
	}
}

func TestExpandNonRecurringPassesThrough(t *testing.T) {
	task := model.Task{ID: 9, Title: "one-off", Due: "2024-01-01T09:00:00Z", Created: refNow}

	occs, err := Expand(task, refNow, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
	occ := occs[0]
	if occ.Recurring {
		t.Fatal("passthrough flagged recurring")
	}
	if occ.DisplayID() != "9" {
		t.Fatalf("id: got %q", occ.DisplayID())
	}
	if occ.At == nil || !occ.At.Equal(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("instant: got %v", occ.At)
	}
}

func TestExpandRuleWithoutDuePassesThrough(t *testing.T) {
	task := recurringTask(3, "", "FREQ=DAILY")

	occs, err := Expand(task, refNow, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occs) != 1 || occs[0].Recurring {
		t.Fatalf("expected a single passthrough, got %+v", occs)
	}
	if occs[0].At != nil {
		t.Fatalf("expected nil instant, got %v", occs[0].At)
	}
}

func TestExpandMalformedRuleFailsOpen(t *testing.T) {
	task := recurringTask(7, "2024-01-01T09:00:00Z", "FREQ=SOMETIMES")

	occs, err := Expand(task, refNow, nil, nil)
	if err == nil {
		t.Fatal("expected an error for the malformed rule")
	}
	if len(occs) != 1 {
		t.Fatalf("expected the fallback occurrence, got %d", len(occs))
	}
	if occs[0].Recurring {
		t.Fatal("fallback flagged recurring")
	}
	if occs[0].DisplayID() != "7" {
		t.Fatalf("id: got %q", occs[0].DisplayID())
	}
	if occs[0].Task.Due != task.Due {
		t.Fatalf("fallback due rewritten: %q", occs[0].Task.Due)
	}
}

func TestExpandExplicitWindow(t *testing.T) {
	task := recurringTask(5, "2024-01-01T09:00:00Z", "FREQ=WEEKLY;COUNT=4")
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	occs, err := Expand(task, refNow, &start, &end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence in window, got %d", len(occs))
	}
	if got := occs[0].DisplayID(); got != "5_r_20240115_090000" {
		t.Fatalf("id: got %q", got)
	}
}

func TestExpandDefaultWindowBoundsOpenEndedRules(t *testing.T) {
	task := recurringTask(2, "2024-01-01T09:00:00Z", "FREQ=DAILY")

	occs, err := Expand(task, refNow, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Six-month window starting at now: Jan 1 through Jun 1 2024 inclusive.
	if len(occs) == 0 {
		t.Fatal("expected occurrences")
	}
	last := occs[len(occs)-1]
	limit := refNow.AddDate(0, 6, 0)
	if last.At.After(limit) {
		t.Fatalf("occurrence %s escapes the window ending %s", last.At, limit)
	}
	for i := 1; i < len(occs); i++ {
		if !occs[i-1].At.Before(*occs[i].At) {
			t.Fatalf("occurrences out of order at %d", i)
		}
	}
}

func TestExpandSameWindowIsDeterministic(t *testing.T) {
	task := recurringTask(5, "2024-01-01T09:00:00Z", "FREQ=WEEKLY;COUNT=4")

	first, err := Expand(task, refNow, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Expand(task, refNow, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].DisplayID() != second[i].DisplayID() {
			t.Fatalf("ids differ at %d: %q vs %q", i, first[i].DisplayID(), second[i].DisplayID())
		}
	}
}

func TestSortOpenListing(t *testing.T) {
	early := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	late := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	occs := []Occurrence{
		{ParentID: 1},
		{ParentID: 2, At: &late},
		{ParentID: 3, At: &early},
		{ParentID: 4, At: &early},
		{ParentID: 5},
	}
	Sort(occs, true)

	wantParents := []int64{4, 3, 2, 5, 1}
	for i, occ := range occs {
		if occ.ParentID != wantParents[i] {
			t.Fatalf("position %d: parent %d want %d", i, occ.ParentID, wantParents[i])
		}
	}
}

func TestSortDefaultListing(t *testing.T) {
	early := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	occs := []Occurrence{
		{ParentID: 1, At: &early},
		{ParentID: 3},
		{ParentID: 2, At: &early},
	}
	Sort(occs, false)

	wantParents := []int64{3, 2, 1}
	for i, occ := range occs {
		if occ.ParentID != wantParents[i] {
			t.Fatalf("position %d: parent %d want %d", i, occ.ParentID, wantParents[i])
		}
	}
}
