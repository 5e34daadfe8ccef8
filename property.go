package ics

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"
)

// BaseProperty is the tokenizer's output for a single content line: an IANA
// (or X-) token, its parameters, and its raw value. See RFC 5545 section 3.1.
type BaseProperty struct {
	IANAToken      string
	ICalParameters map[string][]string
	// ParamOrder preserves the order parameters were first seen on the line.
	// Purely a convenience for round-tripping; lookups use ICalParameters.
	ParamOrder []string
	Value      string
}

type PropertyParameter interface {
	KeyValue(s ...interface{}) (string, []string)
}

// Parameter enumerates the property parameter names WithCN/WithValue/WithTzid
// attach to a serialized property (RFC 5545 section 3.2).
type Parameter string

const (
	// ParameterCn is the common name parameter (section 3.2.2).
	ParameterCn Parameter = "CN"
	// ParameterValue overrides a property's value data type (section 3.2.20).
	ParameterValue Parameter = "VALUE"
	// ParameterTzid identifies the timezone of a DATE-TIME value (section 3.2.19).
	ParameterTzid Parameter = "TZID"
)

type KeyValues struct {
	Key   string
	Value []string
}

func (kv *KeyValues) KeyValue(s ...interface{}) (string, []string) {
	return kv.Key, kv.Value
}

func WithCN(cn string) PropertyParameter {
	return &KeyValues{Key: string(ParameterCn), Value: []string{cn}}
}

func WithValue(kind string) PropertyParameter {
	return &KeyValues{Key: string(ParameterValue), Value: []string{kind}}
}

func WithTzid(tzid string) PropertyParameter {
	return &KeyValues{Key: string(ParameterTzid), Value: []string{tzid}}
}

func trimUT8StringUpTo(maxLength int, s string) string {
	length := 0
	lastSpace := -1
	for i, r := range s {
		if r == ' ' {
			lastSpace = i
		}
		newLength := length + utf8.RuneLen(r)
		if newLength > maxLength {
			break
		}
		length = newLength
	}
	if lastSpace > 0 {
		return s[:lastSpace]
	}
	return s[:length]
}

func (property *BaseProperty) serialize(w io.Writer, serialConfig *SerializationConfiguration) error {
	b := bytes.NewBufferString("")
	fmt.Fprint(b, property.IANAToken)
	keys := property.ParamOrder
	if len(keys) == 0 {
		for k := range property.ICalParameters {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		vs, ok := property.ICalParameters[k]
		if !ok {
			continue
		}
		fmt.Fprint(b, ";")
		fmt.Fprint(b, k)
		fmt.Fprint(b, "=")
		for vi, v := range vs {
			if vi > 0 {
				fmt.Fprint(b, ",")
			}
			if strings.ContainsAny(v, ";:\\\",") {
				v = strings.Replace(v, "\\", "\\\\", -1)
				v = strings.Replace(v, ";", "\\;", -1)
				v = strings.Replace(v, ":", "\\:", -1)
				v = strings.Replace(v, "\"", "\\\"", -1)
				v = strings.Replace(v, ",", "\\,", -1)
			}
			fmt.Fprint(b, v)
		}
	}
	fmt.Fprint(b, ":")
	fmt.Fprint(b, property.Value)
	r := b.String()
	maxLen := 75
	newLine := "\r\n"
	if serialConfig != nil {
		maxLen = serialConfig.PropertyMaxLength
		newLine = serialConfig.NewLine
	}
	if len(r) > maxLen {
		l := trimUT8StringUpTo(maxLen, r)
		fmt.Fprint(w, l, newLine)
		r = r[len(l):]
		for len(r) > maxLen-1 {
			l := trimUT8StringUpTo(maxLen-1, r)
			fmt.Fprint(w, " ", l, newLine)
			r = r[len(l):]
		}
		fmt.Fprint(w, " ")
	}
	_, err := fmt.Fprint(w, r, newLine)
	return err
}

type IANAProperty struct {
	BaseProperty
}

var (
	propertyIanaTokenReg *regexp.Regexp
	propertyParamNameReg *regexp.Regexp
	propertyValueTextReg *regexp.Regexp
)

func init() {
	var err error
	propertyIanaTokenReg, err = regexp.Compile("[A-Za-z0-9-]{1,}")
	if err != nil {
		log.Panicf("failed to build regex: %v", err)
	}
	propertyParamNameReg = propertyIanaTokenReg
	propertyValueTextReg, err = regexp.Compile("^.*")
	if err != nil {
		log.Panicf("failed to build regex: %v", err)
	}
}

// ContentLine is a single logical (already unfolded) line as produced by the
// Line Unfolder (unfold.go).
type ContentLine string

// ParseProperty implements the content-line grammar from RFC 5545 section
// 3.1: name (';' param-name '=' param-value (',' param-value)*)* ':' value.
// A line with no ':' returns (nil, nil) -- the tokenizer's Skip outcome.
func ParseProperty(contentLine ContentLine) (*BaseProperty, error) {
	r := &BaseProperty{
		ICalParameters: map[string][]string{},
	}
	tokenPos := propertyIanaTokenReg.FindIndex([]byte(contentLine))
	if tokenPos == nil {
		return nil, nil
	}
	p := 0
	r.IANAToken = string(contentLine[p+tokenPos[0] : p+tokenPos[1]])
	p += tokenPos[1]
	for {
		if p >= len(contentLine) {
			return nil, nil
		}
		switch rune(contentLine[p]) {
		case ':':
			return parsePropertyValue(r, string(contentLine), p+1), nil
		case ';':
			var np int
			var err error
			t := r.IANAToken
			r, np, err = parsePropertyParam(r, string(contentLine), p+1)
			if err != nil {
				return nil, fmt.Errorf("parsing property %s: %w", t, err)
			}
			if r == nil {
				return nil, nil
			}
			p = np
		default:
			return nil, nil
		}
	}
}

// attributeSkippedLine implements the Skip-outcome carryover: a line with a
// ':' but no usable name before it is pathological input, not a genuine
// name-less line, and is attributed to lastToken (the previous property
// seen in the current component) rather than dropped. A line with no ':' at
// all has no value to carry over and is a true skip.
func attributeSkippedLine(raw, lastToken string) (*BaseProperty, bool) {
	if lastToken == "" {
		return nil, false
	}
	idx := strings.IndexByte(raw, ':')
	if idx < 0 {
		return nil, false
	}
	return &BaseProperty{
		IANAToken:      lastToken,
		Value:          raw[idx+1:],
		ICalParameters: map[string][]string{},
	}, true
}

func parsePropertyParam(r *BaseProperty, contentLine string, p int) (*BaseProperty, int, error) {
	tokenPos := propertyParamNameReg.FindIndex([]byte(contentLine[p:]))
	if tokenPos == nil {
		return nil, p, nil
	}
	k := string(contentLine[p : p+tokenPos[1]])
	p += tokenPos[1]
	switch rune(contentLine[p]) {
	case '=':
		p += 1
	default:
		return nil, p, fmt.Errorf("missing property value for %s in %s", k, r.IANAToken)
	}
	if _, seen := r.ICalParameters[k]; !seen {
		r.ParamOrder = append(r.ParamOrder, k)
	}
	for {
		if p >= len(contentLine) {
			return nil, p, nil
		}
		var v string
		var err error
		v, p, err = parsePropertyParamValue(contentLine, p)
		if err != nil {
			return nil, 0, fmt.Errorf("parse error: %w %s in %s", err, k, r.IANAToken)
		}
		r.ICalParameters[k] = append(r.ICalParameters[k], v)
		switch rune(contentLine[p]) {
		case ',':
			p += 1
		default:
			return r, p, nil
		}
	}
}

// parsePropertyParamValue reads one comma-separated parameter value. Inside a
// double-quoted run the boundary characters ';' ':' ',' '=' are literal; the
// quotes themselves are discarded from the returned value.
func parsePropertyParamValue(s string, p int) (string, int, error) {
	r := make([]byte, 0, len(s))
	quoted := false
	done := false
	ip := p
	for ; p < len(s) && !done; p++ {
		switch s[p] {
		case 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08:
			return "", 0, fmt.Errorf("unexpected char ascii:%d in property param value", s[p])
		case 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x19, 0x1A, 0x1B,
			0x1C, 0x1D, 0x1E, 0x1F:
			return "", 0, fmt.Errorf("unexpected char ascii:%d in property param value", s[p])
		case '\\':
			r = append(r, []byte(FromText(string(s[p+1:p+2])))...)
			p++
			continue
		case ';', ':', ',':
			if !quoted {
				done = true
				p--
				continue
			}
		case '"':
			if p == ip {
				quoted = true
				continue
			}
			if quoted {
				done = true
				continue
			}
			return "", 0, fmt.Errorf("unexpected double quote in property param value")
		}
		r = append(r, s[p])
	}
	return string(r), p, nil
}

func parsePropertyValue(r *BaseProperty, contentLine string, p int) *BaseProperty {
	tokenPos := propertyValueTextReg.FindIndex([]byte(contentLine[p:]))
	if tokenPos == nil {
		return nil
	}
	r.Value = string(contentLine[p : p+tokenPos[1]])
	return r
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	`;`, `\;`,
	`,`, `\,`,
)

func ToText(s string) string {
	return textEscaper.Replace(s)
}

var textUnescaper = strings.NewReplacer(
	`\\`, `\`,
	`\n`, "\n",
	`\N`, "\n",
	`\;`, `;`,
	`\,`, `,`,
)

func FromText(s string) string {
	return textUnescaper.Replace(s)
}

// quoteIfNeeded implements the four-slot reconstruction rule from spec
// section 4.F: escape(t) = "\""+t+"\"" iff t contains any of : ; , else t.
func quoteIfNeeded(t string) string {
	if strings.ContainsAny(t, ":;,") {
		return "\"" + t + "\""
	}
	return t
}
