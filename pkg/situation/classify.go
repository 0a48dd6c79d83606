package situation

import (
	"fmt"
	"time"

	"github.com/nwpc-oper/workflow-log-collector/pkg/ecflow"
	"github.com/nwpc-oper/workflow-log-collector/pkg/locator"
)

// Classify runs a fresh machine over one day's events, in order, stopping
// at the first terminal status.
func Classify(date time.Time, events []*ecflow.StatusRecord, opts Options) *Situation {
	m := NewMachine(opts)
	for _, ev := range events {
		if m.Trigger(ev.Status, ev.Timestamp) {
			break
		}
	}

	s := &Situation{
		Date:       date,
		State:      m.Finish(),
		TimePoints: m.TimePoints(),
		Events:     events,
	}

	if s.State == StateComplete && opts.ExpectedFirst != "" {
		if first := s.TimePoints[0].Status; first != opts.ExpectedFirst {
			s.Anomaly = fmt.Sprintf("first status is %s, expected %s", first, opts.ExpectedFirst)
		}
	}

	return s
}

// ClassifyRange partitions events by calendar day and classifies every day
// of rng, including days without events. An omitted bound is taken from
// the first or last event.
func ClassifyRange(events []*ecflow.StatusRecord, rng locator.DateRange, opts Options) []*Situation {
	byDay := make(map[string][]*ecflow.StatusRecord)
	for _, ev := range events {
		d := ev.Date()
		if !rng.Contains(d) {
			continue
		}
		key := d.Format(time.DateOnly)
		byDay[key] = append(byDay[key], ev)
	}

	rng = closeRange(rng, events)
	days := rng.Days()

	situations := make([]*Situation, 0, len(days))
	for _, d := range days {
		situations = append(situations, Classify(d, byDay[d.Format(time.DateOnly)], opts))
	}
	return situations
}

func closeRange(rng locator.DateRange, events []*ecflow.StatusRecord) locator.DateRange {
	if len(events) == 0 {
		return rng
	}
	if rng.Start.IsZero() {
		rng.Start = events[0].Date()
	}
	if rng.Stop.IsZero() {
		rng.Stop = events[len(events)-1].Date().AddDate(0, 0, 1)
	}
	return rng
}
