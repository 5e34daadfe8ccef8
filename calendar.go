package ics

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// ComponentType enumerates the component names the Calendar Assembler
// recognises when dispatching a BEGIN/END block (RFC 5545 section 3.6).
type ComponentType string

const (
	// ComponentVCalendar is the VCALENDAR container component.
	ComponentVCalendar ComponentType = "VCALENDAR"
	// ComponentVEvent represents a VEVENT component.
	ComponentVEvent ComponentType = "VEVENT"
	// ComponentVTodo represents a VTODO component.
	ComponentVTodo ComponentType = "VTODO"
	// ComponentVJournal represents a VJOURNAL component.
	ComponentVJournal ComponentType = "VJOURNAL"
	// ComponentVFreeBusy represents a VFREEBUSY component.
	ComponentVFreeBusy ComponentType = "VFREEBUSY"
	// ComponentVTimezone represents a VTIMEZONE component.
	ComponentVTimezone ComponentType = "VTIMEZONE"
	// ComponentVAlarm represents a VALARM subcomponent.
	ComponentVAlarm ComponentType = "VALARM"
	// ComponentStandard represents a STANDARD timezone subcomponent.
	ComponentStandard ComponentType = "STANDARD"
	// ComponentDaylight represents a DAYLIGHT timezone subcomponent.
	ComponentDaylight ComponentType = "DAYLIGHT"
)

// ComponentProperty enumerates the property names buildRawEvent switches on
// while extracting a VEVENT into a RawEvent, plus the handful Event.Serialize
// re-emits. Each constant is the textual property name defined in RFC 5545
// section 3.8.
type ComponentProperty string

const (
	// ComponentPropertyUniqueId maps to UID (section 3.8.4.7).
	ComponentPropertyUniqueId ComponentProperty = "UID"
	// ComponentPropertySummary maps to SUMMARY (section 3.8.1.12).
	ComponentPropertySummary ComponentProperty = "SUMMARY"
	// ComponentPropertyDtStart maps to DTSTART (section 3.8.2.4).
	ComponentPropertyDtStart ComponentProperty = "DTSTART"
	// ComponentPropertyDtEnd maps to DTEND (section 3.8.2.2).
	ComponentPropertyDtEnd ComponentProperty = "DTEND"
	// ComponentPropertyRecurrenceId maps to RECURRENCE-ID (section 3.8.4.4).
	ComponentPropertyRecurrenceId ComponentProperty = "RECURRENCE-ID"
	// ComponentPropertyDuration maps to DURATION (section 3.8.2.5).
	ComponentPropertyDuration ComponentProperty = "DURATION"
	// ComponentPropertyRrule maps to RRULE (section 3.8.5.3).
	ComponentPropertyRrule ComponentProperty = "RRULE"
	// ComponentPropertyExdate maps to EXDATE (section 3.8.5.1).
	ComponentPropertyExdate ComponentProperty = "EXDATE"
	// ComponentPropertyRdate maps to RDATE (section 3.8.5.2).
	ComponentPropertyRdate ComponentProperty = "RDATE"
	// ComponentPropertyAttendee maps to ATTENDEE (section 3.8.4.1).
	ComponentPropertyAttendee ComponentProperty = "ATTENDEE"
	// ComponentPropertyComment maps to COMMENT (section 3.8.1.4).
	ComponentPropertyComment ComponentProperty = "COMMENT"
	// ComponentPropertyCategories maps to CATEGORIES (section 3.8.1.2).
	ComponentPropertyCategories ComponentProperty = "CATEGORIES"
	// ComponentPropertyAttach maps to ATTACH (section 3.8.1.1).
	ComponentPropertyAttach ComponentProperty = "ATTACH"
	// ComponentPropertyContact maps to CONTACT (section 3.8.4.2).
	ComponentPropertyContact ComponentProperty = "CONTACT"
	// ComponentPropertyRequestStatus maps to REQUEST-STATUS (section 3.8.8.3).
	ComponentPropertyRequestStatus ComponentProperty = "REQUEST-STATUS"
	// ComponentPropertyRelatedTo maps to RELATED-TO (section 3.8.4.5).
	ComponentPropertyRelatedTo ComponentProperty = "RELATED-TO"
)

type CalendarProperty struct {
	BaseProperty
}

// Calendar represents a VCALENDAR object as assembled by ParseCalendar:
// CalendarProperties carries every calendar-level property line verbatim
// (VERSION, PRODID, vendor X- extensions) so re-serializing round-trips
// them, and Components holds the parsed VEVENT/VTODO/VTIMEZONE/etc. tree.
type Calendar struct {
	Components         []Component
	CalendarProperties []CalendarProperty
}

func (cal *Calendar) Serialize(ops ...any) string {
	b := &strings.Builder{}
	// We are intentionally ignoring the return value. _ used to communicate this to lint.
	_ = cal.SerializeTo(b, ops...)
	return b.String()
}

type WithLineLength int
type WithNewLine string

func (cal *Calendar) SerializeTo(w io.Writer, ops ...any) error {
	serializeConfig, err := parseSerializeOps(ops)
	if err != nil {
		return err
	}
	_, _ = io.WriteString(w, "BEGIN:VCALENDAR"+serializeConfig.NewLine)
	for _, p := range cal.CalendarProperties {
		err := p.serialize(w, serializeConfig)
		if err != nil {
			return err
		}
	}
	for _, c := range cal.Components {
		err := c.SerializeTo(w, serializeConfig)
		if err != nil {
			return err
		}
	}
	_, _ = io.WriteString(w, "END:VCALENDAR"+serializeConfig.NewLine)
	return nil
}

// SerializationConfiguration controls how calendars and components are written
// out.  MaxLength and PropertyMaxLength correspond to the 75 octet line length
// recommendations from RFC 5545 section 3.1.  NewLine selects the line
// termination sequence.
type SerializationConfiguration struct {
	MaxLength         int
	NewLine           string
	PropertyMaxLength int
}

// parseSerializeOps interprets the optional arguments provided to Serialize or
// SerializeTo.  It accepts WithLineLength, WithNewLine or a
// *SerializationConfiguration.  Unsupported types return an error.
func parseSerializeOps(ops []any) (*SerializationConfiguration, error) {
	serializeConfig := defaultSerializationOptions()
	for opi, op := range ops {
		switch op := op.(type) {
		case WithLineLength:
			serializeConfig.MaxLength = int(op)
		case WithNewLine:
			serializeConfig.NewLine = string(op)
		case *SerializationConfiguration:
			return op, nil
		case error:
			return nil, op
		default:
			return nil, fmt.Errorf("unknown op %d of type %s", opi, reflect.TypeOf(op))
		}
	}
	return serializeConfig, nil
}

// defaultSerializationOptions returns the default values used for calendar
// serialization.  The line length defaults to 75 characters as recommended by
// RFC 5545 and the newline is platform specific.
func defaultSerializationOptions() *SerializationConfiguration {
	serializeConfig := &SerializationConfiguration{
		MaxLength:         75,
		PropertyMaxLength: 75,
		NewLine:           string(NewLine),
	}
	return serializeConfig
}

func (calendar *Calendar) Events() (r []*VEvent) {
	r = []*VEvent{}
	for i := range calendar.Components {
		switch event := calendar.Components[i].(type) {
		case *VEvent:
			r = append(r, event)
		}
	}
	return
}

func ParseCalendar(r io.Reader) (*Calendar, error) {
	state := "begin"
	c := &Calendar{}
	cs := NewCalendarStream(r)
	cont := true
	lastToken := ""
	for ln := 0; cont; ln++ {
		l, err := cs.ReadLine()
		if err != nil {
			switch err {
			case io.EOF:
				cont = false
			default:
				return c, err
			}
		}
		if l == nil || len(*l) == 0 {
			continue
		}
		line, err := ParseProperty(*l)
		if err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", ln, err)
		}
		if line == nil {
			// The tokenizer's Skip outcome: a line with no ':' is dropped
			// outright, but a name-less ":value" line is attributed to the
			// last-seen calendar-level keyword instead of aborting the parse.
			if state == "properties" {
				if p, ok := attributeSkippedLine(string(*l), lastToken); ok {
					c.CalendarProperties = append(c.CalendarProperties, CalendarProperty{*p})
				}
			}
			continue
		}
		switch state {
		case "begin":
			switch line.IANAToken {
			case "BEGIN":
				switch line.Value {
				case "VCALENDAR":
					state = "properties"
				default:
					return nil, errors.New("malformed calendar; expected a vcalendar")
				}
			default:
				return nil, errors.New("malformed calendar; expected begin")
			}
		case "properties":
			switch line.IANAToken {
			case "END":
				switch line.Value {
				case "VCALENDAR":
					state = "end"
				default:
					return nil, errors.New("malformed calendar; expected end")
				}
			case "BEGIN":
				state = "components"
			default:
				// Unknown property names are retained to ensure
				// that vendor extensions or future RFC updates
				// are not lost when the calendar is parsed and
				// serialized again.
				c.CalendarProperties = append(c.CalendarProperties, CalendarProperty{*line})
				lastToken = line.IANAToken
			}
			if state != "components" {
				break
			}
			fallthrough
		case "components":
			switch line.IANAToken {
			case "END":
				switch line.Value {
				case "VCALENDAR":
					state = "end"
				default:
					return nil, errors.New("malformed calendar; expected end")
				}
			case "BEGIN":
				co, err := GeneralParseComponent(cs, line)
				if err != nil {
					return nil, err
				}
				if co != nil {
					c.Components = append(c.Components, co)
				}
			default:
				return nil, errors.New("malformed calendar; expected begin or end")
			}
		case "end":
			return nil, errors.New("malformed calendar; unexpected end")
		default:
			return nil, errors.New("malformed calendar; bad state")
		}
	}
	return c, nil
}

