package ics

import "sort"

// PropertyValueWithParams is a single-valued property materialised for the
// recurrence engine: its parsed ZonedMoment (as an epoch, for sorting and
// window comparisons), its parameters, and a reconstructed textual form
// (name;TZID=zone:value). No engine operation reads Reconstructed.
type PropertyValueWithParams struct {
	Params        map[string][]string
	Raw           string
	Moment        ZonedMoment
	Epoch         int64
	Reconstructed string
}

// RawEvent is the struct-typed extraction of a single VEVENT's properties,
// replacing the stringly-typed nested maps a generic property bag would
// otherwise force downstream code to renavigate on every access.
type RawEvent struct {
	Scalars map[string]string

	DtStart, DtEnd, RecurrenceID *PropertyValueWithParams
	Duration                     *Duration
	RRule                        *RRule
	ExDates                      []ZonedMoment
	RDates                       []ZonedMoment

	UID string

	Repeated map[string][]IANAProperty
	Unknown  []IANAProperty
}

// buildRawEvent walks a parsed VEvent's properties once and fills a RawEvent,
// resolving TZID parameters through zr and reconstructing a
// (name;TZID=zone:value) text form for date-valued properties via
// quoteIfNeeded.
func buildRawEvent(ev *VEvent, zr *zoneResolver, cfg *Config) (*RawEvent, error) {
	re := &RawEvent{
		Scalars:  map[string]string{},
		Repeated: map[string][]IANAProperty{},
	}
	for _, p := range ev.Properties {
		switch p.IANAToken {
		case string(ComponentPropertyDtStart):
			pv, err := materializeMoment(p, zr, cfg)
			if err != nil {
				return nil, err
			}
			re.DtStart = pv
		case string(ComponentPropertyDtEnd):
			pv, err := materializeMoment(p, zr, cfg)
			if err != nil {
				return nil, err
			}
			re.DtEnd = pv
		case string(ComponentPropertyRecurrenceId):
			pv, err := materializeMoment(p, zr, cfg)
			if err != nil {
				return nil, err
			}
			re.RecurrenceID = pv
		case string(ComponentPropertyDuration):
			d, err := ParseDuration(p.Value)
			if err != nil {
				return nil, err
			}
			re.Duration = &d
		case string(ComponentPropertyRrule):
			rule, err := ParseRRule(p.Value, cfg.defaultWeekStart)
			if err != nil {
				// An illegal RRULE only invalidates the recurrence, not the
				// base event: log and fall through with re.RRule left nil.
				cfg.logger.Warnf("skipping invalid RRULE %q: %v", p.Value, err)
				continue
			}
			re.RRule = rule
		case string(ComponentPropertyExdate):
			zm, err := parseListedMoments(p, zr, cfg)
			if err != nil {
				return nil, err
			}
			re.ExDates = append(re.ExDates, zm...)
		case string(ComponentPropertyRdate):
			zm, err := parseListedMoments(p, zr, cfg)
			if err != nil {
				return nil, err
			}
			re.RDates = append(re.RDates, zm...)
		case string(ComponentPropertyUniqueId):
			re.UID = FromText(p.Value)
		case string(ComponentPropertyAttendee), string(ComponentPropertyComment),
			string(ComponentPropertyCategories), string(ComponentPropertyAttach),
			string(ComponentPropertyContact), string(ComponentPropertyRequestStatus),
			string(ComponentPropertyRelatedTo):
			re.Repeated[p.IANAToken] = append(re.Repeated[p.IANAToken], p)
		default:
			if _, isKnown := re.Scalars[p.IANAToken]; !isKnown {
				re.Scalars[p.IANAToken] = normalizeCustomProperty(p.Value, cfg)
			}
			re.Unknown = append(re.Unknown, p)
		}
	}
	return re, nil
}

func materializeMoment(p IANAProperty, zr *zoneResolver, cfg *Config) (*PropertyValueWithParams, error) {
	tzid := firstParam(p.ICalParameters, "TZID")
	zm, err := ParseZonedMoment(p.Value, tzid)
	if err != nil {
		return nil, err
	}
	reconstructed := p.IANAToken
	if tzid != "" {
		iana := zr.Resolve(tzid)
		reconstructed += ";TZID=" + quoteIfNeeded(iana)
		zm.Zone = Zone{IANA: iana}
	}
	reconstructed += ":" + quoteIfNeeded(p.Value)
	return &PropertyValueWithParams{
		Params:        p.ICalParameters,
		Raw:           p.Value,
		Moment:        zm,
		Epoch:         zm.Epoch(cfg.defaultTimeZone),
		Reconstructed: reconstructed,
	}, nil
}

func parseListedMoments(p IANAProperty, zr *zoneResolver, cfg *Config) ([]ZonedMoment, error) {
	tzid := firstParam(p.ICalParameters, "TZID")
	var out []ZonedMoment
	for _, part := range splitUnescaped(p.Value, ',') {
		zm, err := ParseZonedMoment(part, tzid)
		if err != nil {
			return nil, err
		}
		if tzid != "" {
			zm.Zone = Zone{IANA: zr.Resolve(tzid)}
		}
		out = append(out, zm)
	}
	return out, nil
}

func splitUnescaped(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func firstParam(params map[string][]string, key string) string {
	if vs, ok := params[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// normalizeCustomProperty trims whitespace and unescapes a single layer of
// TEXT backslash-escaping for an unknown/X- property's raw value, unless
// character replacement has been disabled via Config.
func normalizeCustomProperty(raw string, cfg *Config) string {
	if cfg.disableCharacterReplacement {
		return raw
	}
	trimmed := raw
	for len(trimmed) > 0 && (trimmed[0] == ' ' || trimmed[0] == '\t') {
		trimmed = trimmed[1:]
	}
	for len(trimmed) > 0 && (trimmed[len(trimmed)-1] == ' ' || trimmed[len(trimmed)-1] == '\t') {
		trimmed = trimmed[:len(trimmed)-1]
	}
	return FromText(trimmed)
}

// ModifiedInstanceIndex maps a base event's UID to the RECURRENCE-ID epochs
// that have been overridden by a separate VEVENT carrying that UID plus a
// RECURRENCE-ID. Expansion nullifies the generated base occurrence at each
// indexed epoch instead of mutating the generated slice in place.
type ModifiedInstanceIndex struct {
	overrides map[string]map[int64]*RawEvent
	consumed  map[*RawEvent]bool
}

// NewModifiedInstanceIndex builds an index from every RawEvent that carries
// a RecurrenceID, keyed by UID then by the recurrence epoch it replaces.
func NewModifiedInstanceIndex(events []*RawEvent) *ModifiedInstanceIndex {
	idx := &ModifiedInstanceIndex{
		overrides: map[string]map[int64]*RawEvent{},
		consumed:  map[*RawEvent]bool{},
	}
	for _, e := range events {
		if e.RecurrenceID == nil {
			continue
		}
		if idx.overrides[e.UID] == nil {
			idx.overrides[e.UID] = map[int64]*RawEvent{}
		}
		idx.overrides[e.UID][e.RecurrenceID.Epoch] = e
	}
	return idx
}

// Override returns the replacement RawEvent for (uid, epoch), if any, and
// marks it consumed so Unconsumed can find overrides whose base occurrence
// was never generated (e.g. the base event's RRULE no longer produces that
// instance, or the base carries no RRULE at all).
func (m *ModifiedInstanceIndex) Override(uid string, epoch int64) (*RawEvent, bool) {
	byEpoch, ok := m.overrides[uid]
	if !ok {
		return nil, false
	}
	e, ok := byEpoch[epoch]
	if ok {
		m.consumed[e] = true
	}
	return e, ok
}

// Unconsumed returns every override RawEvent that Override never matched
// against a generated base occurrence; the engine still emits these as
// standalone events rather than silently dropping them. The result is
// sorted by (UID, recurrence epoch) so callers get a stable order despite
// the underlying map's undefined iteration order.
func (m *ModifiedInstanceIndex) Unconsumed() []*RawEvent {
	var out []*RawEvent
	for _, byEpoch := range m.overrides {
		for _, e := range byEpoch {
			if !m.consumed[e] {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UID != out[j].UID {
			return out[i].UID < out[j].UID
		}
		return out[i].RecurrenceID.Epoch < out[j].RecurrenceID.Epoch
	})
	return out
}
