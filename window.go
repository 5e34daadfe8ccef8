package ics

// windowFilter drops occurrences whose start falls outside
// [windowMin, windowMax]; a nil bound is unconstrained on that side.
func windowFilter(events []Event, windowMin, windowMax *int64) []Event {
	if windowMin == nil && windowMax == nil {
		return events
	}
	var out []Event
	for _, e := range events {
		if windowMin != nil && e.StartEpoch < *windowMin {
			continue
		}
		if windowMax != nil && e.StartEpoch > *windowMax {
			continue
		}
		out = append(out, e)
	}
	return out
}

// resolveWindow turns Config's day-count bounds into absolute epoch bounds
// relative to now.
func resolveWindow(cfg *Config, nowEpoch int64) (min, max *int64) {
	if cfg.filterDaysBefore != nil {
		v := nowEpoch - int64(*cfg.filterDaysBefore)*86400
		min = &v
	}
	if cfg.filterDaysAfter != nil {
		v := nowEpoch + int64(*cfg.filterDaysAfter)*86400
		max = &v
	}
	return min, max
}
