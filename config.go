package ics

import (
	"fmt"
	"time"
)

// Config holds the tunables listed under external interfaces: how far an
// unbounded recurrence expands by default, which zone and week-start govern
// floating values and WKST-less RRULEs, and the optional window that bounds
// the whole expansion.
type Config struct {
	defaultSpanYears            int
	defaultTimeZone             *time.Location
	defaultWeekStart            time.Weekday
	skipRecurrence              bool
	disableCharacterReplacement bool
	filterDaysBefore            *int
	filterDaysAfter             *int
	zoneResolver                ZoneNameResolver
	logger                      Logger
}

// Option configures a Config via NewConfig.
type Option func(*Config) error

// WithDefaultSpanYears bounds how many years an RRULE with neither COUNT nor
// UNTIL expands across before the engine stops generating candidates.
func WithDefaultSpanYears(years int) Option {
	return func(c *Config) error {
		if years <= 0 {
			return fmt.Errorf("%w: default span years must be positive, got %d", ErrConfiguration, years)
		}
		c.defaultSpanYears = years
		return nil
	}
}

// WithDefaultTimeZone sets the zone applied to floating (zone-less)
// DATE-TIME values.
func WithDefaultTimeZone(loc *time.Location) Option {
	return func(c *Config) error {
		if loc == nil {
			return fmt.Errorf("%w: default time zone must not be nil", ErrConfiguration)
		}
		c.defaultTimeZone = loc
		return nil
	}
}

// WithDefaultWeekStart sets the week-start day used when an RRULE omits
// WKST (RFC 5545 default is Monday).
func WithDefaultWeekStart(day time.Weekday) Option {
	return func(c *Config) error {
		c.defaultWeekStart = day
		return nil
	}
}

// WithSkipRecurrence disables RRULE/RDATE expansion entirely: only the base
// occurrence of each source event is returned.
func WithSkipRecurrence(skip bool) Option {
	return func(c *Config) error {
		c.skipRecurrence = skip
		return nil
	}
}

// WithDisableCharacterReplacement turns off normalizeCustomProperty's escape
// unwinding for unknown/X- properties, returning their raw TEXT value.
func WithDisableCharacterReplacement(disable bool) Option {
	return func(c *Config) error {
		c.disableCharacterReplacement = disable
		return nil
	}
}

// WithFilterWindow bounds emitted occurrences to DTSTART values within
// [now-before, now+after] days, inclusive. Either bound may be nil.
func WithFilterWindow(daysBefore, daysAfter *int) Option {
	return func(c *Config) error {
		if daysBefore != nil && *daysBefore < 0 {
			return fmt.Errorf("%w: filterDaysBefore must not be negative, got %d", ErrConfiguration, *daysBefore)
		}
		if daysAfter != nil && *daysAfter < 0 {
			return fmt.Errorf("%w: filterDaysAfter must not be negative, got %d", ErrConfiguration, *daysAfter)
		}
		c.filterDaysBefore = daysBefore
		c.filterDaysAfter = daysAfter
		return nil
	}
}

// WithZoneResolver overrides the CLDR/Windows lookup used by the time-zone
// resolver (timezone.go). Defaults to NewStaticZoneNameResolver(nil, nil).
func WithZoneResolver(r ZoneNameResolver) Option {
	return func(c *Config) error {
		if r == nil {
			return fmt.Errorf("%w: zone resolver must not be nil", ErrConfiguration)
		}
		c.zoneResolver = r
		return nil
	}
}

// WithLogger installs a Logger to receive non-fatal diagnostics.
func WithLogger(l Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return fmt.Errorf("%w: logger must not be nil", ErrConfiguration)
		}
		c.logger = l
		return nil
	}
}

// NewConfig applies opts over the documented defaults: a 2-year span, UTC,
// Monday week-start, recurrence enabled, character replacement enabled, no
// window, the built-in static zone tables, and a NopLogger.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		defaultSpanYears: 2,
		defaultTimeZone:  time.UTC,
		defaultWeekStart: time.Monday,
		zoneResolver:     NewStaticZoneNameResolver(nil, nil),
		logger:           NopLogger{},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
