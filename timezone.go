package ics

import (
	"html"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
)

// ZoneNameResolver looks up the IANA zone backing a CLDR display name or a
// legacy Windows zone ID. Both maps are pure data (RFC-adjacent but not
// RFC-defined), so they are injected rather than hard-coded, per the design
// note that CLDR/Windows tables are a lookup dependency, not engine logic.
type ZoneNameResolver interface {
	IANAFromCLDR(name string) (string, bool)
	IANAFromWindows(name string) (string, bool)
}

type staticZoneNameResolver struct {
	cldr    map[string]string
	windows map[string]string
	fold    cases.Caser
}

// NewStaticZoneNameResolver builds a ZoneNameResolver over cldr and windows,
// merged with a small built-in table covering the most common Windows and
// CLDR long names. Either map may be nil. Keys are matched case-insensitively.
func NewStaticZoneNameResolver(cldr, windows map[string]string) ZoneNameResolver {
	merged := map[string]string{
		"pacific standard time":         "America/Los_Angeles",
		"mountain standard time":        "America/Denver",
		"central standard time":         "America/Chicago",
		"eastern standard time":         "America/New_York",
		"gmt standard time":             "Europe/London",
		"central european standard time": "Europe/Berlin",
		"w. europe standard time":       "Europe/Berlin",
		"romance standard time":         "Europe/Paris",
		"tokyo standard time":           "Asia/Tokyo",
		"china standard time":           "Asia/Shanghai",
		"india standard time":           "Asia/Kolkata",
		"aus eastern standard time":     "Australia/Sydney",
		"utc":                           "Etc/UTC",
	}
	for k, v := range windows {
		merged[strings.ToLower(k)] = v
	}
	c := map[string]string{
		"pacific time":         "America/Los_Angeles",
		"mountain time":        "America/Denver",
		"central time":         "America/Chicago",
		"eastern time":         "America/New_York",
		"greenwich mean time":  "Etc/UTC",
		"central european time": "Europe/Berlin",
		"japan standard time":  "Asia/Tokyo",
		"india standard time":  "Asia/Kolkata",
	}
	for k, v := range cldr {
		c[strings.ToLower(k)] = v
	}
	return &staticZoneNameResolver{
		cldr:    c,
		windows: merged,
		fold:    cases.Fold(),
	}
}

func (r *staticZoneNameResolver) IANAFromCLDR(name string) (string, bool) {
	v, ok := r.cldr[r.fold.String(strings.ToLower(name))]
	return v, ok
}

func (r *staticZoneNameResolver) IANAFromWindows(name string) (string, bool) {
	v, ok := r.windows[r.fold.String(strings.ToLower(name))]
	return v, ok
}

// zoneResolver implements the TZID resolution chain from the time-zone
// resolver component: strip quotes and decode HTML entities, then try the
// name as an IANA identifier directly, then via CLDR, then via the Windows
// table, finally falling back to the configured default zone. Validity
// results are cached per instance (never as a package global) so concurrent
// Parse calls on independent Config values never share mutable state.
type zoneResolver struct {
	names      ZoneNameResolver
	defaultLoc *time.Location
	logger     Logger

	mu         sync.Mutex
	validCache map[string]bool
}

func newZoneResolver(names ZoneNameResolver, defaultLoc *time.Location, logger Logger) *zoneResolver {
	return &zoneResolver{
		names:      names,
		defaultLoc: defaultLoc,
		logger:     logger,
		validCache: map[string]bool{},
	}
}

// Resolve returns the IANA identifier to use for tzid, falling back to the
// configured default zone's identifier when tzid cannot be resolved by any
// step of the chain.
func (z *zoneResolver) Resolve(tzid string) string {
	if tzid == "" {
		return z.defaultLoc.String()
	}
	name := html.UnescapeString(strings.Trim(tzid, `"`))
	if z.isValidIANA(name) {
		return name
	}
	if iana, ok := z.names.IANAFromCLDR(name); ok && z.isValidIANA(iana) {
		return iana
	}
	if iana, ok := z.names.IANAFromWindows(name); ok && z.isValidIANA(iana) {
		return iana
	}
	z.logger.Warnf("could not resolve TZID %q, falling back to %s", tzid, z.defaultLoc.String())
	return z.defaultLoc.String()
}

func (z *zoneResolver) isValidIANA(name string) bool {
	z.mu.Lock()
	if v, ok := z.validCache[name]; ok {
		z.mu.Unlock()
		return v
	}
	z.mu.Unlock()

	_, err := time.LoadLocation(name)
	valid := err == nil

	z.mu.Lock()
	z.validCache[name] = valid
	z.mu.Unlock()
	return valid
}
