// Package recur materializes recurring tasks into concrete occurrences for
// calendar-style listing. A stored task carries at most one RFC 5545 RRULE
// string; expansion derives a bounded window of instances from it and never
// writes anything back.
package recur

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/sandeepkv93/memoria/internal/model"
	"github.com/sandeepkv93/memoria/internal/timeparse"
)

// Guard against pathological rules (FREQ=MINUTELY over six months); the
// window is the primary bound.
const maxOccurrences = 1000

const instantLayout = "20060102_150405"

// Occurrence is one concrete scheduled instant of a task. For a recurring
// task it is a derived copy with the occurrence instant as its due time; for
// anything else it is the task passed through unchanged. The parent id and
// instant are carried as fields so ordering never round-trips through the
// display id string.
type Occurrence struct {
	Task      model.Task
	ParentID  int64
	At        *time.Time
	Recurring bool
}

// DisplayID renders the wire id: the numeric task id, or
// "<parentId>_r_<YYYYMMDD_HHMMSS>" (UTC) for a recurring instance. Repeated
// expansion of the same window yields identical ids.
func (o Occurrence) DisplayID() string {
	if !o.Recurring || o.At == nil {
		return strconv.FormatInt(o.ParentID, 10)
	}
	return fmt.Sprintf("%d_r_%s", o.ParentID, o.At.UTC().Format(instantLayout))
}

// Expand enumerates the task's occurrences within [start, end]. start
// defaults to now (UTC) and end to start plus six months. The task's due
// time is the recurrence anchor; occurrences are emitted in chronological
// order and enumeration stops at the first instant past end.
//
// A task without both a rule and a usable due time passes through as its own
// sole occurrence. A malformed rule degrades the same way, and the
// evaluation error is returned alongside the fallback so the caller can log
// or surface it; the occurrence slice is always usable.
func Expand(t model.Task, now time.Time, windowStart, windowEnd *time.Time) ([]Occurrence, error) {
	anchor, hasDue := timeparse.ParseDue(t.Due)
	if !t.IsRecurring() || !hasDue {
		return []Occurrence{passthrough(t)}, nil
	}

	start := now.UTC()
	if windowStart != nil {
		start = windowStart.UTC()
	}
	end := start.AddDate(0, 6, 0)
	if windowEnd != nil {
		end = windowEnd.UTC()
	}

	opt, err := rrule.StrToROption(t.RRule)
	if err != nil {
		return []Occurrence{passthrough(t)}, fmt.Errorf("recur: task %d rrule %q: %w", t.ID, t.RRule, err)
	}
	opt.Dtstart = anchor.UTC().Truncate(time.Second)
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return []Occurrence{passthrough(t)}, fmt.Errorf("recur: task %d rrule %q: %w", t.ID, t.RRule, err)
	}

	out := make([]Occurrence, 0, 4)
	next := rule.Iterator()
	for i := 0; i < maxOccurrences; i++ {
		at, ok := next()
		if !ok {
			break
		}
		at = at.UTC()
		if at.After(end) {
			// The sequence is monotonic, so this ends enumeration.
			break
		}
		if at.Before(start) {
			continue
		}
		out = append(out, instance(t, at))
	}
	return out, nil
}

func passthrough(t model.Task) Occurrence {
	occ := Occurrence{Task: t, ParentID: t.ID}
	if at, ok := timeparse.ParseDue(t.Due); ok {
		utc := at.UTC()
		occ.At = &utc
	}
	return occ
}

func instance(t model.Task, at time.Time) Occurrence {
	derived := t
	derived.Due = at.Format(time.RFC3339)
	return Occurrence{Task: derived, ParentID: t.ID, At: &at, Recurring: true}
}

// Sort orders occurrences for a listing response. Open-task listings go due
// ascending with missing due sorted last, ties broken by newer parent id;
// everything else is newest parent id first.
func Sort(occs []Occurrence, openOnly bool) {
	if !openOnly {
		sort.SliceStable(occs, func(i, j int) bool {
			return occs[i].ParentID > occs[j].ParentID
		})
		return
	}
	sort.SliceStable(occs, func(i, j int) bool {
		a, b := occs[i], occs[j]
		switch {
		case a.At == nil && b.At == nil:
			return a.ParentID > b.ParentID
		case a.At == nil:
			return false
		case b.At == nil:
			return true
		case a.At.Equal(*b.At):
			return a.ParentID > b.ParentID
		default:
			return a.At.Before(*b.At)
		}
	})
}
