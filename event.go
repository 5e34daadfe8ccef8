package ics

import (
	"io"
	"sort"
)

// Event is one materialised occurrence: either a source VEVENT's base
// occurrence or one instance generated by expanding its RRULE, with any
// RECURRENCE-ID override already spliced in.
type Event struct {
	UID         string
	Summary     string
	StartEpoch  int64
	EndEpoch    int64
	Start       ZonedMoment
	End         ZonedMoment
	IsRecurring bool
	Overridden  bool
	Scalars     map[string]string
}

// exportEvents implements the Event Exporter (component I): concatenates
// every source event's occurrences and sorts by DtStart epoch ascending,
// breaking ties by input order (a stable sort), matching the property-order
// preservation convention used throughout this codebase's property slices.
func exportEvents(perSource [][]Event) []Event {
	var all []Event
	for _, occs := range perSource {
		all = append(all, occs...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].StartEpoch < all[j].StartEpoch
	})
	return all
}

// Serialize emits a single VEVENT block for e, reusing the calendar
// package's line-folding writer. This is a test/diagnostic convenience only
// -- no engine operation depends on it -- so it reconstructs a minimal
// VEVENT rather than every property RawEvent tracked.
func (e Event) Serialize(serialConfig *SerializationConfiguration) string {
	ev := NewEvent(e.UID)
	ev.AddProperty(ComponentPropertySummary, ToText(e.Summary))
	if e.Start.Zone.IANA != "" {
		ev.AddProperty(ComponentPropertyDtStart, dtstartValue(e.Start), WithTzid(e.Start.Zone.IANA))
	} else {
		ev.AddProperty(ComponentPropertyDtStart, dtstartValue(e.Start))
	}
	if e.End.HasTime || e.End.Year != 0 {
		ev.AddProperty(ComponentPropertyDtEnd, dtstartValue(e.End))
	}
	if serialConfig == nil {
		serialConfig = defaultSerializationOptions()
	}
	w := &stringWriter{}
	_ = ev.SerializeTo(w, serialConfig)
	return w.String()
}

func dtstartValue(z ZonedMoment) string {
	const digits = "0123456789"
	pad := func(n, width int) string {
		s := make([]byte, width)
		for i := width - 1; i >= 0; i-- {
			s[i] = digits[n%10]
			n /= 10
		}
		return string(s)
	}
	v := pad(z.Year, 4) + pad(z.Month, 2) + pad(z.Day, 2)
	if !z.HasTime {
		return v
	}
	v += "T" + pad(z.Hour, 2) + pad(z.Minute, 2) + pad(z.Second, 2)
	if z.IsUTC {
		v += "Z"
	}
	return v
}

type stringWriter struct {
	buf []byte
}

func (s *stringWriter) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

func (s *stringWriter) String() string { return string(s.buf) }

var _ io.Writer = (*stringWriter)(nil)
