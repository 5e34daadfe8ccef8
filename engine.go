package ics

import (
	"fmt"
	"io"
	"time"
)

// Parse tokenizes, assembles, and expands an iCalendar stream into the
// occurrences it describes: the Calendar Assembler (components A/B/E) builds
// the component tree, buildRawEvent (E/F) extracts each VEVENT's typed
// fields, the RRULE engine (G) expands recurring events, RECURRENCE-ID
// overrides are spliced in via a ModifiedInstanceIndex, an optional window
// (H) drops out-of-range occurrences, and the exporter (I) returns the
// merged, DtStart-sorted result.
func Parse(r io.Reader, cfg *Config) ([]Event, error) {
	if cfg == nil {
		var err error
		cfg, err = NewConfig()
		if err != nil {
			return nil, err
		}
	}

	cal, err := ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("assembling calendar: %w", err)
	}

	zr := newZoneResolver(cfg.zoneResolver, cfg.defaultTimeZone, cfg.logger)

	var raws []*RawEvent
	for _, ev := range cal.Events() {
		re, err := buildRawEvent(ev, zr, cfg)
		if err != nil {
			cfg.logger.Warnf("skipping event: %v", err)
			continue
		}
		raws = append(raws, re)
	}

	idx := NewModifiedInstanceIndex(raws)

	var perSource [][]Event
	for _, re := range raws {
		if re.RecurrenceID != nil {
			// A RECURRENCE-ID event is consumed by idx and spliced into its
			// base event's expansion (expandSource); it is never its own
			// independent source, or its overridden occurrence would appear
			// twice.
			continue
		}
		occs, err := expandSource(re, idx, cfg)
		if err != nil {
			cfg.logger.Warnf("skipping recurrence expansion for %s: %v", re.UID, err)
			occs = []Event{rawEventToEvent(re, re.DtStart, cfg)}
		}
		perSource = append(perSource, occs)
	}

	for _, orphan := range idx.Unconsumed() {
		// An override whose base occurrence was never generated (base has no
		// RRULE, or its RRULE no longer produces that epoch): still emit it
		// standalone rather than dropping it.
		perSource = append(perSource, []Event{rawEventToEvent(orphan, orphan.DtStart, cfg)})
	}

	events := exportEvents(perSource)

	if cfg.filterDaysBefore != nil || cfg.filterDaysAfter != nil {
		min, max := resolveWindow(cfg, time.Now().Unix())
		events = windowFilter(events, min, max)
	}
	return events, nil
}

// expandSource returns every occurrence of a single non-override RawEvent:
// its base DtStart, plus its RDATE additions and RRULE expansion (if any,
// and unless recurrence expansion is disabled), with EXDATEs removed and any
// RECURRENCE-ID override spliced in place of the generated base occurrence
// at that epoch.
func expandSource(re *RawEvent, idx *ModifiedInstanceIndex, cfg *Config) ([]Event, error) {
	if re.DtStart == nil {
		return nil, ErrStartAndEndDateNotDefined
	}
	base := re.DtStart.Moment

	var moments []ZonedMoment
	moments = append(moments, base)
	if !cfg.skipRecurrence {
		moments = append(moments, re.RDates...)
	}

	if re.RRule != nil && !cfg.skipRecurrence {
		expanded, err := Expand(base, re.RRule, re.ExDates, cfg)
		if err != nil {
			return nil, err
		}
		// Expand already includes the base occurrence as its first
		// candidate; replace the seed list with its output so DtStart isn't
		// duplicated.
		moments = append(expanded, filterExDates(re.RDates, re.ExDates)...)
	} else {
		moments = filterExDates(moments, re.ExDates)
	}

	var out []Event
	for _, m := range moments {
		epoch := m.Epoch(cfg.defaultTimeZone)
		if override, ok := idx.Override(re.UID, epoch); ok {
			out = append(out, rawEventToEvent(override, override.DtStart, cfg))
			continue
		}
		out = append(out, rawEventFromMoment(re, m, cfg))
	}
	return out, nil
}

func filterExDates(moments []ZonedMoment, exdates []ZonedMoment) []ZonedMoment {
	if len(exdates) == 0 {
		return moments
	}
	excluded := map[[6]int]bool{}
	excludedDates := map[[3]int]bool{}
	for _, e := range exdates {
		if e.HasTime {
			excluded[momentKey(e)] = true
		} else {
			excludedDates[dateKey(e)] = true
		}
	}
	var out []ZonedMoment
	for _, m := range moments {
		if !excluded[momentKey(m)] && !excludedDates[dateKey(m)] {
			out = append(out, m)
		}
	}
	return out
}

func rawEventToEvent(re *RawEvent, dt *PropertyValueWithParams, cfg *Config) Event {
	m := re.DtStart.Moment
	if dt != nil {
		m = dt.Moment
	}
	return rawEventFromMoment(re, m, cfg)
}

func rawEventFromMoment(re *RawEvent, m ZonedMoment, cfg *Config) Event {
	e := Event{
		UID:         re.UID,
		Summary:     re.Scalars[string(ComponentPropertySummary)],
		Start:       m,
		StartEpoch:  m.Epoch(cfg.defaultTimeZone),
		IsRecurring: re.RRule != nil,
		Overridden:  re.RecurrenceID != nil,
		Scalars:     re.Scalars,
	}
	switch {
	case re.DtEnd != nil:
		delta := int(re.DtEnd.Epoch - re.DtStart.Epoch)
		e.End = m.AddDuration(Duration{Seconds: delta})
		e.EndEpoch = e.End.Epoch(cfg.defaultTimeZone)
	case re.Duration != nil:
		e.End = m.AddDuration(*re.Duration)
		e.EndEpoch = e.End.Epoch(cfg.defaultTimeZone)
	default:
		e.End = m
		e.EndEpoch = e.StartEpoch
	}
	return e
}
