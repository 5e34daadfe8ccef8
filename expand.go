package ics

import (
	"sort"
	"time"
)

// weekStartOffset returns the number of days to step back from d to reach
// the most recent wkst-aligned week boundary, used to correct the WEEKLY
// interval-skip window: an N-week interval spans from the WKST-aligned start
// of the anchor week through 7*(interval-1) days later, not from DTSTART's
// own weekday.
func weekStartOffset(d, wkst time.Weekday) int {
	diff := int(d) - int(wkst)
	if diff < 0 {
		diff += 7
	}
	return diff
}

// candidateSet generates every ZonedMoment that satisfies rule's BY* filters
// within one "period" anchored at anchor (a day/week/month/year boundary
// depending on rule.Freq), preserving the clock fields from dtstart.
func candidateSet(rule *RRule, anchor ZonedMoment, dtstart ZonedMoment) []ZonedMoment {
	withClock := func(z ZonedMoment) ZonedMoment {
		z.Hour, z.Minute, z.Second, z.HasTime = dtstart.Hour, dtstart.Minute, dtstart.Second, dtstart.HasTime
		z.Zone, z.IsUTC = dtstart.Zone, dtstart.IsUTC
		return z
	}

	switch rule.Freq {
	case FrequencyDaily:
		if !matchesByMonth(rule, anchor) {
			return nil
		}
		if len(rule.ByMonthDay) > 0 && !monthDayMatches(rule.ByMonthDay, anchor.Day, daysInMonth(anchor.Year, anchor.Month)) {
			return nil
		}
		if len(rule.ByDay) > 0 && !dayInByDay(rule.ByDay, anchor.weekday(), 0) {
			return nil
		}
		return []ZonedMoment{withClock(anchor)}

	case FrequencyWeekly:
		var out []ZonedMoment
		weekStart := anchor
		for i := 0; i < 7; i++ {
			d := weekStart
			d.Day += i
			d = d.normalizeDate()
			if !matchesByMonth(rule, d) {
				continue
			}
			if len(rule.ByDay) > 0 && !dayInByDay(rule.ByDay, d.weekday(), 0) {
				continue
			}
			// Without BYDAY a WEEKLY rule recurs on DTSTART's weekday only.
			if len(rule.ByDay) == 0 && d.weekday() != dtstart.weekday() {
				continue
			}
			out = append(out, withClock(d))
		}
		return out

	case FrequencyMonthly:
		return monthCandidates(rule, anchor, dtstart, withClock)

	case FrequencyYearly:
		return yearCandidates(rule, anchor, dtstart, withClock)
	}
	return nil
}

func matchesByMonth(rule *RRule, z ZonedMoment) bool {
	if len(rule.ByMonth) == 0 {
		return true
	}
	for _, m := range rule.ByMonth {
		if m == z.Month {
			return true
		}
	}
	return false
}

func dayInByDay(list []WeekdayNum, wd time.Weekday, ordinalOfMonth int) bool {
	for _, w := range list {
		if w.Day != wd {
			continue
		}
		if w.Ordinal == 0 || w.Ordinal == ordinalOfMonth {
			return true
		}
	}
	return false
}

// monthCandidates expands a single month anchored at the first of the
// month, applying BYMONTHDAY and/or BYDAY (mutually additive per RFC 5545:
// a candidate need only satisfy one BY-part group to qualify, but this
// engine follows the common reading that when both are present a day must
// satisfy both, which is the behaviour the reference engines this design is
// grounded on implement).
func monthCandidates(rule *RRule, anchor, dtstart ZonedMoment, withClock func(ZonedMoment) ZonedMoment) []ZonedMoment {
	if !matchesByMonth(rule, anchor) {
		return nil
	}
	if len(rule.ByMonthDay) == 0 && len(rule.ByDay) == 0 {
		z := anchor
		if last := daysInMonth(anchor.Year, anchor.Month); dtstart.Day <= last {
			z.Day = dtstart.Day
			return []ZonedMoment{withClock(z)}
		}
		return nil
	}
	last := daysInMonth(anchor.Year, anchor.Month)
	var out []ZonedMoment
	for day := 1; day <= last; day++ {
		z := anchor
		z.Day = day
		if len(rule.ByMonthDay) > 0 && !monthDayMatches(rule.ByMonthDay, day, last) {
			continue
		}
		if len(rule.ByDay) > 0 {
			ord := (day-1)/7 + 1
			if !dayInByDay(rule.ByDay, z.weekday(), ord) && !dayInByDayNegative(rule.ByDay, z.weekday(), day, last) {
				continue
			}
		}
		out = append(out, withClock(z))
	}
	return out
}

func monthDayMatches(list []int, day, last int) bool {
	for _, n := range list {
		if n > 0 && n == day {
			return true
		}
		if n < 0 && last+n+1 == day {
			return true
		}
	}
	return false
}

// dayInByDayNegative handles BYDAY ordinals like -1TH ("last Thursday").
func dayInByDayNegative(list []WeekdayNum, wd time.Weekday, day, last int) bool {
	fromEnd := (last-day)/7 + 1
	for _, w := range list {
		if w.Day == wd && w.Ordinal < 0 && -w.Ordinal == fromEnd {
			return true
		}
	}
	return false
}

// yearCandidates expands one year anchored at Jan 1, applying the BY-part
// priority ordering BYMONTH > BYWEEKNO > BYYEARDAY > BYMONTHDAY: the first
// of these stanzas present in the rule determines the candidate set: BYDAY
// (if present) then filters that set further. With BYMONTH set, BYDAY
// ordinals count within each month, as in the monthly case; without BYMONTH
// an ordinal BYDAY entry matches no day.
func yearCandidates(rule *RRule, anchor, dtstart ZonedMoment, withClock func(ZonedMoment) ZonedMoment) []ZonedMoment {
	year := anchor.Year
	var days []ZonedMoment // every candidate day-of-year before BYDAY filtering

	switch {
	case len(rule.ByWeekNo) > 0 && len(rule.ByMonth) == 0:
		for _, wn := range rule.ByWeekNo {
			days = append(days, daysInISOWeek(year, wn, rule.WkSt)...)
		}
	case len(rule.ByYearDay) > 0 && len(rule.ByMonth) == 0:
		total := yearLength(year)
		for _, n := range rule.ByYearDay {
			doy := n
			if n < 0 {
				doy = total + n + 1
			}
			if doy < 1 || doy > total {
				continue
			}
			days = append(days, dayOfYear(year, doy))
		}
	case len(rule.ByMonthDay) > 0:
		months := rule.ByMonth
		if len(months) == 0 {
			for m := 1; m <= 12; m++ {
				months = append(months, m)
			}
		}
		for _, m := range months {
			last := daysInMonth(year, m)
			for _, n := range rule.ByMonthDay {
				day := n
				if n < 0 {
					day = last + n + 1
				}
				if day < 1 || day > last {
					continue
				}
				days = append(days, ZonedMoment{Year: year, Month: m, Day: day})
			}
		}
	case len(rule.ByMonth) > 0:
		for _, m := range rule.ByMonth {
			last := daysInMonth(year, m)
			for d := 1; d <= last; d++ {
				days = append(days, ZonedMoment{Year: year, Month: m, Day: d})
			}
		}
	default:
		days = append(days, ZonedMoment{Year: year, Month: dtstart.Month, Day: dtstart.Day})
	}

	if len(rule.ByDay) == 0 {
		out := make([]ZonedMoment, len(days))
		for i, d := range days {
			out[i] = withClock(d)
		}
		return out
	}

	var out []ZonedMoment
	for _, d := range days {
		ord, fromEnd := 0, false
		if len(rule.ByMonth) > 0 {
			last := daysInMonth(d.Year, d.Month)
			ord = (d.Day-1)/7 + 1
			fromEnd = dayInByDayNegative(rule.ByDay, d.weekday(), d.Day, last)
		}
		if dayInByDay(rule.ByDay, d.weekday(), ord) || fromEnd {
			out = append(out, withClock(d))
		}
	}
	return out
}

func yearLength(year int) int {
	if isLeapYear(year) {
		return 366
	}
	return 365
}

func dayOfYear(year, doy int) ZonedMoment {
	z := ZonedMoment{Year: year, Month: 1, Day: doy}
	return z.normalizeDate()
}

// isoWeekCountYear implements the 53-vs-52 rule: a year has 53 ISO weeks iff
// Jan 1 falls on wkst+3 (Thursday when wkst is Monday), or on a leap year
// Jan 1 falls one day earlier than that (Wednesday when wkst is Monday).
func isoWeekCountYear(year int, wkst time.Weekday) int {
	jan1 := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Weekday()
	offset := (int(jan1) - int(wkst) + 7) % 7
	if offset == 3 {
		return 53
	}
	if isLeapYear(year) && offset == 2 {
		return 53
	}
	return 52
}

// daysInISOWeek returns the 7 calendar days of week number wn (1-based,
// negative counts from the end of the year) of year, where a week starts on
// wkst.
func daysInISOWeek(year, wn int, wkst time.Weekday) []ZonedMoment {
	total := isoWeekCountYear(year, wkst)
	n := wn
	if n < 0 {
		n = total + n + 1
	}
	if n < 1 || n > total {
		return nil
	}
	jan1 := ZonedMoment{Year: year, Month: 1, Day: 1}
	back := weekStartOffset(jan1.weekday(), wkst)
	firstWeekStart := jan1
	firstWeekStart.Day -= back
	firstWeekStart = firstWeekStart.normalizeDate()

	start := firstWeekStart
	start.Day += (n - 1) * 7
	start = start.normalizeDate()

	out := make([]ZonedMoment, 7)
	for i := 0; i < 7; i++ {
		d := start
		d.Day += i
		out[i] = d.normalizeDate()
	}
	return out
}

// applyBySetPos selects the BySetPos-numbered entries (1-based, negative
// from the end) out of a period's already-filtered, chronologically sorted
// candidate list.
func applyBySetPos(rule *RRule, candidates []ZonedMoment, epochOf func(ZonedMoment) int64) []ZonedMoment {
	if len(rule.BySetPos) == 0 {
		return candidates
	}
	sorted := append([]ZonedMoment(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return epochOf(sorted[i]) < epochOf(sorted[j]) })
	n := len(sorted)
	seen := map[int]bool{}
	var out []ZonedMoment
	for _, pos := range rule.BySetPos {
		idx := pos - 1
		if pos < 0 {
			idx = n + pos
		}
		if idx < 0 || idx >= n || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, sorted[idx])
	}
	sort.Slice(out, func(i, j int) bool { return epochOf(out[i]) < epochOf(out[j]) })
	return out
}

// Expand runs the STARTADVANCE -> EXPAND -> FILTER -> EMIT pipeline: step
// through periods (day/week/month/year, stepped by Interval, with the WKST
// correction applied for WEEKLY), generate each period's BY*-filtered
// candidates, apply BYSETPOS, drop candidates before dtstart or matching
// exdates, and stop at COUNT, UNTIL, or the configured default span.
//
// COUNT is consumed by every candidate that reaches the EXDATE filter,
// including dtstart itself and instances later excluded by EXDATE -- an
// EXDATE does not "refill" the count with a replacement occurrence.
func Expand(dtstart ZonedMoment, rule *RRule, exdates []ZonedMoment, cfg *Config) ([]ZonedMoment, error) {
	excluded := map[[6]int]bool{}
	excludedDates := map[[3]int]bool{}
	for _, e := range exdates {
		if e.HasTime {
			excluded[momentKey(e)] = true
		} else {
			// A date-only EXDATE has no time-of-day to compare against a
			// timed candidate, so it excludes every occurrence that falls
			// on that calendar date regardless of its time.
			excludedDates[dateKey(e)] = true
		}
	}

	spanEnd := dtstart
	spanEnd.Year += cfg.defaultSpanYears

	var results []ZonedMoment
	count := 0
	period := periodAnchor(rule, dtstart)
	firstPeriod := true

	for iterations := 0; iterations < 100000; iterations++ {
		if rule.Until != nil && anchorPastUntil(period, rule) {
			break
		}
		if rule.Until == nil && rule.Count == 0 && momentBefore(spanEnd, period) {
			break
		}

		// BYSETPOS indexes into the period's full candidate set, so it must
		// run before dtstart-exclusion narrows that set -- otherwise the
		// first period's positional indices shift by however many
		// candidates preceded dtstart.
		cands := candidateSet(rule, period, dtstart)
		cands = applyBySetPos(rule, cands, func(z ZonedMoment) int64 { return z.Epoch(cfg.defaultTimeZone) })
		sort.Slice(cands, func(i, j int) bool {
			return cands[i].Epoch(cfg.defaultTimeZone) < cands[j].Epoch(cfg.defaultTimeZone)
		})

		for _, c := range cands {
			if firstPeriod && momentBefore(c, dtstart) {
				continue
			}
			if rule.Until != nil && c.Epoch(cfg.defaultTimeZone) > rule.Until.Epoch(cfg.defaultTimeZone) {
				return trimToCount(results, rule.Count), nil
			}
			count++
			if !excluded[momentKey(c)] && !excludedDates[dateKey(c)] {
				results = append(results, c)
			}
			if rule.Count > 0 && count >= rule.Count {
				return results, nil
			}
		}

		firstPeriod = false
		period = advancePeriod(rule, period)
	}
	return results, nil
}

func trimToCount(results []ZonedMoment, count int) []ZonedMoment {
	if count <= 0 || len(results) <= count {
		return results
	}
	return results[:count]
}

func momentKey(z ZonedMoment) [6]int {
	return [6]int{z.Year, z.Month, z.Day, z.Hour, z.Minute, z.Second}
}

func dateKey(z ZonedMoment) [3]int {
	return [3]int{z.Year, z.Month, z.Day}
}

func momentBefore(a, b ZonedMoment) bool {
	ak, bk := momentKey(a), momentKey(b)
	for i := range ak {
		if ak[i] != bk[i] {
			return ak[i] < bk[i]
		}
	}
	return false
}

func anchorPastUntil(period ZonedMoment, rule *RRule) bool {
	switch rule.Freq {
	case FrequencyDaily, FrequencyWeekly:
		return momentBefore(*rule.Until, period)
	case FrequencyMonthly:
		end := ZonedMoment{Year: period.Year, Month: period.Month, Day: daysInMonth(period.Year, period.Month)}
		return momentBefore(*rule.Until, end)
	case FrequencyYearly:
		end := ZonedMoment{Year: period.Year, Month: 12, Day: 31}
		return momentBefore(*rule.Until, end)
	}
	return false
}

// periodAnchor returns the first period boundary at or before dtstart:
// dtstart's own day for DAILY/MONTHLY/YEARLY, and the WKST-aligned start of
// dtstart's week for WEEKLY.
func periodAnchor(rule *RRule, dtstart ZonedMoment) ZonedMoment {
	switch rule.Freq {
	case FrequencyWeekly:
		back := weekStartOffset(dtstart.weekday(), rule.WkSt)
		z := dtstart
		z.Day -= back
		return z.normalizeDate()
	case FrequencyMonthly:
		return ZonedMoment{Year: dtstart.Year, Month: dtstart.Month, Day: 1}
	case FrequencyYearly:
		return ZonedMoment{Year: dtstart.Year, Month: 1, Day: 1}
	}
	return dtstart
}

// advancePeriod steps one period forward by rule.Interval. WEEKLY steps by
// 7*Interval days from the WKST-aligned anchor, which is the correction the
// engine applies instead of stepping from dtstart's own weekday.
func advancePeriod(rule *RRule, period ZonedMoment) ZonedMoment {
	switch rule.Freq {
	case FrequencyDaily:
		z := period
		z.Day += rule.Interval
		return z.normalizeDate()
	case FrequencyWeekly:
		z := period
		z.Day += 7 * rule.Interval
		return z.normalizeDate()
	case FrequencyMonthly:
		return period.AddMonths(rule.Interval)
	case FrequencyYearly:
		return period.AddMonths(12 * rule.Interval)
	}
	return period
}
