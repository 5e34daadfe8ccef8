package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Component is implemented by every BEGIN/END block the Calendar Assembler
// recognises. Use a type switch to determine which of *VEvent, *VTodo,
// *VBusy, *VJournal, *VTimezone, *VAlarm, *Standard, *Daylight or
// *GeneralComponent a value holds.
type Component interface {
	UnknownPropertiesIANAProperties() []IANAProperty
	SubComponents() []Component
	SerializeTo(w io.Writer, serialConfig *SerializationConfiguration) error
}

var (
	_ Component = (*VEvent)(nil)
	_ Component = (*VTodo)(nil)
	_ Component = (*VBusy)(nil)
	_ Component = (*VJournal)(nil)
	_ Component = (*VTimezone)(nil)
	_ Component = (*VAlarm)(nil)
	_ Component = (*Standard)(nil)
	_ Component = (*Daylight)(nil)
	_ Component = (*GeneralComponent)(nil)
)

// ComponentBase is the property/sub-component bag shared by every component
// type. The raw-event builder (rawevent.go) walks Properties directly;
// GetProperty/GetProperties are lookup helpers (Id uses GetProperty).
type ComponentBase struct {
	Properties []IANAProperty
	Components []Component
}

func (cb *ComponentBase) UnknownPropertiesIANAProperties() []IANAProperty {
	return cb.Properties
}

func (cb *ComponentBase) SubComponents() []Component {
	return cb.Components
}

func (cb *ComponentBase) serializeThis(writer io.Writer, componentType ComponentType, serialConfig *SerializationConfiguration) error {
	_, _ = io.WriteString(writer, "BEGIN:"+string(componentType)+serialConfig.NewLine)
	for _, p := range cb.Properties {
		if err := p.serialize(writer, serialConfig); err != nil {
			return err
		}
	}
	for _, c := range cb.Components {
		if err := c.SerializeTo(writer, serialConfig); err != nil {
			return err
		}
	}
	_, err := io.WriteString(writer, "END:"+string(componentType)+serialConfig.NewLine)
	return err
}

// GetProperty returns the first match for a component property, or nil.
func (cb *ComponentBase) GetProperty(componentProperty ComponentProperty) *IANAProperty {
	for i := range cb.Properties {
		if cb.Properties[i].IANAToken == string(componentProperty) {
			return &cb.Properties[i]
		}
	}
	return nil
}

// GetProperties returns all matches for a component property.
func (cb *ComponentBase) GetProperties(componentProperty ComponentProperty) []*IANAProperty {
	var result []*IANAProperty
	for i := range cb.Properties {
		if cb.Properties[i].IANAToken == string(componentProperty) {
			result = append(result, &cb.Properties[i])
		}
	}
	return result
}

// HasProperty reports whether a component property is present.
func (cb *ComponentBase) HasProperty(componentProperty ComponentProperty) bool {
	return cb.GetProperty(componentProperty) != nil
}

// AddProperty appends a property, used only by Event.Serialize's round-trip
// path (tests) since the parser builds Properties directly off the wire.
func (cb *ComponentBase) AddProperty(property ComponentProperty, value string, params ...PropertyParameter) {
	r := IANAProperty{
		BaseProperty{
			IANAToken:      string(property),
			Value:          value,
			ICalParameters: map[string][]string{},
		},
	}
	for _, p := range params {
		k, v := p.KeyValue()
		r.ICalParameters[k] = v
		r.ParamOrder = append(r.ParamOrder, k)
	}
	cb.Properties = append(cb.Properties, r)
}

// Id returns the UID property, unescaped, or "" if absent.
func (cb *ComponentBase) Id() string {
	p := cb.GetProperty(ComponentPropertyUniqueId)
	if p != nil {
		return FromText(p.Value)
	}
	return ""
}

type VEvent struct {
	ComponentBase
}

func (event *VEvent) SerializeTo(w io.Writer, serialConfig *SerializationConfiguration) error {
	return event.ComponentBase.serializeThis(w, ComponentVEvent, serialConfig)
}

func (event *VEvent) Serialize(serialConfig *SerializationConfiguration) string {
	b := &strings.Builder{}
	_ = event.SerializeTo(b, serialConfig)
	return b.String()
}

func NewEvent(uniqueId string) *VEvent {
	return &VEvent{ComponentBase{
		Properties: []IANAProperty{
			{BaseProperty{IANAToken: string(ComponentPropertyUniqueId), Value: uniqueId}},
		},
	}}
}

type VTodo struct {
	ComponentBase
}

func (todo *VTodo) SerializeTo(w io.Writer, serialConfig *SerializationConfiguration) error {
	return todo.ComponentBase.serializeThis(w, ComponentVTodo, serialConfig)
}

type VJournal struct {
	ComponentBase
}

func (journal *VJournal) SerializeTo(w io.Writer, serialConfig *SerializationConfiguration) error {
	return journal.ComponentBase.serializeThis(w, ComponentVJournal, serialConfig)
}

type VBusy struct {
	ComponentBase
}

func (busy *VBusy) SerializeTo(w io.Writer, serialConfig *SerializationConfiguration) error {
	return busy.ComponentBase.serializeThis(w, ComponentVFreeBusy, serialConfig)
}

type VTimezone struct {
	ComponentBase
}

func (timezone *VTimezone) SerializeTo(w io.Writer, serialConfig *SerializationConfiguration) error {
	return timezone.ComponentBase.serializeThis(w, ComponentVTimezone, serialConfig)
}

type VAlarm struct {
	ComponentBase
}

func (c *VAlarm) SerializeTo(w io.Writer, serialConfig *SerializationConfiguration) error {
	return c.ComponentBase.serializeThis(w, ComponentVAlarm, serialConfig)
}

type Standard struct {
	ComponentBase
}

func (standard *Standard) SerializeTo(w io.Writer, serialConfig *SerializationConfiguration) error {
	return standard.ComponentBase.serializeThis(w, ComponentStandard, serialConfig)
}

type Daylight struct {
	ComponentBase
}

func (daylight *Daylight) SerializeTo(w io.Writer, serialConfig *SerializationConfiguration) error {
	return daylight.ComponentBase.serializeThis(w, ComponentDaylight, serialConfig)
}

// GeneralComponent is the catch-all for VTODO/VFREEBUSY/VALARM-adjacent and
// any unrecognised BEGIN/END block: framing is preserved, no semantics
// beyond the generic property bag are attached.
type GeneralComponent struct {
	ComponentBase
	Token string
}

func (general *GeneralComponent) SerializeTo(w io.Writer, serialConfig *SerializationConfiguration) error {
	return general.ComponentBase.serializeThis(w, ComponentType(general.Token), serialConfig)
}

// GeneralParseComponent dispatches a BEGIN line to the matching component
// parser. VCALENDAR nested inside another component is malformed.
func GeneralParseComponent(cs *CalendarStream, startLine *BaseProperty) (Component, error) {
	var co Component
	var err error
	switch ComponentType(startLine.Value) {
	case ComponentVCalendar:
		return nil, errors.New("malformed calendar; vcalendar not where expected")
	case ComponentVEvent:
		co, err = parseVEvent(cs, startLine)
	case ComponentVTodo:
		co, err = parseVTodo(cs, startLine)
	case ComponentVJournal:
		co, err = parseVJournal(cs, startLine)
	case ComponentVFreeBusy:
		co, err = parseVBusy(cs, startLine)
	case ComponentVTimezone:
		co, err = parseVTimezone(cs, startLine)
	case ComponentVAlarm:
		co, err = parseVAlarm(cs, startLine)
	case ComponentStandard:
		co, err = parseStandard(cs, startLine)
	case ComponentDaylight:
		co, err = parseDaylight(cs, startLine)
	default:
		co, err = parseGeneralComponent(cs, startLine)
	}
	return co, err
}

func parseVEvent(cs *CalendarStream, startLine *BaseProperty) (*VEvent, error) {
	r, err := ParseComponent(cs, startLine)
	if err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	return &VEvent{ComponentBase: r}, nil
}

func parseVTodo(cs *CalendarStream, startLine *BaseProperty) (*VTodo, error) {
	r, err := ParseComponent(cs, startLine)
	if err != nil {
		return nil, err
	}
	return &VTodo{ComponentBase: r}, nil
}

func parseVJournal(cs *CalendarStream, startLine *BaseProperty) (*VJournal, error) {
	r, err := ParseComponent(cs, startLine)
	if err != nil {
		return nil, err
	}
	return &VJournal{ComponentBase: r}, nil
}

func parseVBusy(cs *CalendarStream, startLine *BaseProperty) (*VBusy, error) {
	r, err := ParseComponent(cs, startLine)
	if err != nil {
		return nil, err
	}
	return &VBusy{ComponentBase: r}, nil
}

func parseVTimezone(cs *CalendarStream, startLine *BaseProperty) (*VTimezone, error) {
	r, err := ParseComponent(cs, startLine)
	if err != nil {
		return nil, err
	}
	return &VTimezone{ComponentBase: r}, nil
}

func parseVAlarm(cs *CalendarStream, startLine *BaseProperty) (*VAlarm, error) {
	r, err := ParseComponent(cs, startLine)
	if err != nil {
		return nil, err
	}
	return &VAlarm{ComponentBase: r}, nil
}

func parseStandard(cs *CalendarStream, startLine *BaseProperty) (*Standard, error) {
	r, err := ParseComponent(cs, startLine)
	if err != nil {
		return nil, err
	}
	return &Standard{ComponentBase: r}, nil
}

func parseDaylight(cs *CalendarStream, startLine *BaseProperty) (*Daylight, error) {
	r, err := ParseComponent(cs, startLine)
	if err != nil {
		return nil, err
	}
	return &Daylight{ComponentBase: r}, nil
}

func parseGeneralComponent(cs *CalendarStream, startLine *BaseProperty) (*GeneralComponent, error) {
	r, err := ParseComponent(cs, startLine)
	if err != nil {
		return nil, err
	}
	return &GeneralComponent{ComponentBase: r, Token: startLine.Value}, nil
}

// ParseComponent reads properties and nested BEGIN/END blocks until it sees
// the END line matching startLine, recursing into GeneralParseComponent for
// nested components.
func ParseComponent(cs *CalendarStream, startLine *BaseProperty) (ComponentBase, error) {
	cb := ComponentBase{}
	cont := true
	lastToken := ""
	for ln := 0; cont; ln++ {
		l, err := cs.ReadLine()
		if err != nil {
			if err == io.EOF {
				cont = false
			} else {
				return cb, err
			}
		}
		if l == nil || len(*l) == 0 {
			continue
		}
		line, err := ParseProperty(*l)
		if err != nil {
			return cb, fmt.Errorf("parsing component property %d: %w", ln, err)
		}
		if line == nil {
			// Skip outcome: no ':' at all is dropped; a name-less ":value"
			// line is attributed to the last-seen keyword in this component
			// rather than aborting the whole parse.
			if p, ok := attributeSkippedLine(string(*l), lastToken); ok {
				cb.Properties = append(cb.Properties, IANAProperty{*p})
			}
			continue
		}
		switch line.IANAToken {
		case "END":
			if line.Value == startLine.Value {
				return cb, nil
			}
			return cb, errors.New("unbalanced end")
		case "BEGIN":
			co, err := GeneralParseComponent(cs, line)
			if err != nil {
				return cb, err
			}
			if co != nil {
				cb.Components = append(cb.Components, co)
			}
		default:
			cb.Properties = append(cb.Properties, IANAProperty{*line})
			lastToken = line.IANAToken
		}
	}
	return cb, errors.New("ran out of lines")
}
