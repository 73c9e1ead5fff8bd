package core

// convert.go turns raw cell text into typed record field values.
//
// These functions handle the messy reality of user-provided files:
//   - Multiple date formats (US, EU, ISO, etc.)
//   - Currency symbols and thousand separators in decimals
//   - Various boolean representations (yes/no, true/false, 1/0)
//   - Enumerations spelled in any letter case
//
// Conversion rules are resolved once per target type (converterFor) and
// cached, so the row loop only pays for the parse itself. Blank input is
// always a soft failure that yields the type's zero value.

import (
	"database/sql"
	"encoding"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		time.RFC3339Nano, time.RFC3339,
		"2006-01-02T15:04:05", "2006-01-02 15:04:05.999999999", "2006-01-02 15:04",
		"1/2/2006 15:04:05", "1/2/2006 3:04:05 PM", "1/2/2006 15:04",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006", "January 2, 2006", "2 January 2006",
		"20060102",
	}
)

var errBlank = errors.New("empty value")

// Enum is implemented by named string or integer types whose values are
// matched by name, case-insensitively. Integer kinds receive the matched
// position in EnumValues, string kinds the canonical spelling.
type Enum interface {
	EnumValues() []string
}

type convertFunc func(raw string) (reflect.Value, error)

var (
	timeType            = reflect.TypeOf(time.Time{})
	durationType        = reflect.TypeOf(time.Duration(0))
	pgDateType          = reflect.TypeOf(pgtype.Date{})
	pgTimestampType     = reflect.TypeOf(pgtype.Timestamp{})
	pgNumericType       = reflect.TypeOf(pgtype.Numeric{})
	ratType             = reflect.TypeOf(big.Rat{})
	enumType            = reflect.TypeOf((*Enum)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	scannerType         = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// converters caches one convertFunc per target type.
var converters sync.Map

// Convert converts raw into a value of type t. On failure, including blank
// input, it returns the zero value of t and false.
func Convert(raw string, t reflect.Type) (reflect.Value, bool) {
	v, err := convertValue(raw, t)
	return v, err == nil
}

// Supported reports whether Convert has a rule for t.
func Supported(t reflect.Type) bool {
	_, err := converterFor(t)
	return err == nil
}

// convertValue is Convert with a diagnostic error for row messages.
func convertValue(raw string, t reflect.Type) (reflect.Value, error) {
	conv, err := converterFor(t)
	if err != nil {
		return reflect.Zero(t), err
	}
	return runConverter(conv, raw, t)
}

func runConverter(conv convertFunc, raw string, t reflect.Type) (v reflect.Value, err error) {
	if strings.TrimSpace(raw) == "" {
		return reflect.Zero(t), errBlank
	}

	// TextUnmarshaler and Scanner implementations are caller code.
	defer func() {
		if r := recover(); r != nil {
			v, err = reflect.Zero(t), fmt.Errorf("conversion panicked: %v", r)
		}
	}()

	v, err = conv(raw)
	if err != nil {
		return reflect.Zero(t), err
	}
	return v, nil
}

// converterFor returns the cached conversion rule for t.
func converterFor(t reflect.Type) (convertFunc, error) {
	if c, ok := converters.Load(t); ok {
		return c.(convertFunc), nil
	}
	c, err := buildConverter(t)
	if err != nil {
		return nil, err
	}
	actual, _ := converters.LoadOrStore(t, c)
	return actual.(convertFunc), nil
}

func buildConverter(t reflect.Type) (convertFunc, error) {
	if t.Kind() == reflect.Pointer {
		return pointerConverter(t)
	}

	if names, ok := enumNames(t); ok {
		return enumConverter(t, names)
	}

	switch t {
	case timeType:
		return func(raw string) (reflect.Value, error) {
			tm, err := ParseTimestamp(raw)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(tm), nil
		}, nil
	case pgDateType:
		return func(raw string) (reflect.Value, error) {
			tm, err := ParseTimestamp(raw)
			if err != nil {
				return reflect.Value{}, err
			}
			y, m, d := tm.Date()
			return reflect.ValueOf(pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}), nil
		}, nil
	case pgTimestampType:
		return func(raw string) (reflect.Value, error) {
			tm, err := ParseTimestamp(raw)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(pgtype.Timestamp{Time: tm, Valid: true}), nil
		}, nil
	case pgNumericType:
		return func(raw string) (reflect.Value, error) {
			n, err := ParseDecimal(raw)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(n), nil
		}, nil
	case ratType:
		return func(raw string) (reflect.Value, error) {
			s, err := cleanNumeric(raw)
			if err != nil {
				return reflect.Value{}, err
			}
			r, ok := new(big.Rat).SetString(s)
			if !ok {
				return reflect.Value{}, fmt.Errorf("invalid number %q", raw)
			}
			return reflect.ValueOf(r).Elem(), nil
		}, nil
	case durationType:
		return func(raw string) (reflect.Value, error) {
			d, err := time.ParseDuration(strings.TrimSpace(raw))
			if err != nil {
				return reflect.Value{}, fmt.Errorf("invalid duration %q", raw)
			}
			return reflect.ValueOf(d), nil
		}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return func(raw string) (reflect.Value, error) {
			return reflect.ValueOf(raw).Convert(t), nil
		}, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits := t.Bits()
		return func(raw string) (reflect.Value, error) {
			n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, bits)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("invalid number %q", raw)
			}
			v := reflect.New(t).Elem()
			v.SetInt(n)
			return v, nil
		}, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		bits := t.Bits()
		return func(raw string) (reflect.Value, error) {
			n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, bits)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("invalid number %q", raw)
			}
			v := reflect.New(t).Elem()
			v.SetUint(n)
			return v, nil
		}, nil

	case reflect.Float32, reflect.Float64:
		bits := t.Bits()
		return func(raw string) (reflect.Value, error) {
			s, err := cleanNumeric(raw)
			if err != nil {
				return reflect.Value{}, err
			}
			f, err := strconv.ParseFloat(s, bits)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("invalid number %q", raw)
			}
			v := reflect.New(t).Elem()
			v.SetFloat(f)
			return v, nil
		}, nil

	case reflect.Bool:
		return func(raw string) (reflect.Value, error) {
			b, err := ParseBool(raw)
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			v.SetBool(b)
			return v, nil
		}, nil
	}

	ptr := reflect.PointerTo(t)
	if ptr.Implements(textUnmarshalerType) {
		return func(raw string) (reflect.Value, error) {
			p := reflect.New(t)
			if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
				return reflect.Value{}, fmt.Errorf("invalid %s %q: %w", t, raw, err)
			}
			return p.Elem(), nil
		}, nil
	}
	if ptr.Implements(scannerType) {
		return func(raw string) (reflect.Value, error) {
			p := reflect.New(t)
			if err := p.Interface().(sql.Scanner).Scan(raw); err != nil {
				return reflect.Value{}, fmt.Errorf("invalid %s %q: %w", t, raw, err)
			}
			return p.Elem(), nil
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedField, t)
}

func pointerConverter(t reflect.Type) (convertFunc, error) {
	elem := t.Elem()
	inner, err := converterFor(elem)
	if err != nil {
		return nil, err
	}
	return func(raw string) (reflect.Value, error) {
		v, err := inner(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(elem)
		p.Elem().Set(v)
		return p, nil
	}, nil
}

func enumNames(t reflect.Type) ([]string, bool) {
	if t.Implements(enumType) {
		return reflect.Zero(t).Interface().(Enum).EnumValues(), true
	}
	if reflect.PointerTo(t).Implements(enumType) {
		return reflect.New(t).Interface().(Enum).EnumValues(), true
	}
	return nil, false
}

func enumConverter(t reflect.Type, names []string) (convertFunc, error) {
	kind := t.Kind()
	switch kind {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return nil, fmt.Errorf("%w: enum %s must be a string or integer type", ErrUnsupportedField, t)
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	return func(raw string) (reflect.Value, error) {
		s := strings.TrimSpace(raw)
		i, ok := index[strings.ToLower(s)]
		if !ok && kind != reflect.String {
			// Integer enums also accept their ordinal.
			if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(names) {
				i, ok = n, true
			}
		}
		if !ok {
			return reflect.Value{}, fmt.Errorf("invalid enum %q", raw)
		}

		v := reflect.New(t).Elem()
		switch kind {
		case reflect.String:
			v.SetString(names[i])
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			v.SetUint(uint64(i))
		default:
			v.SetInt(int64(i))
		}
		return v, nil
	}, nil
}

// ParseTimestamp parses s using the supported date and date-time layouts.
// 2-digit years are resolved with TwoDigitYearPivot.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errBlank
	}

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParseDecimal converts s to an arbitrary-precision pgtype.Numeric.
// Handles currency symbols, thousands separators, and accounting format
// (parentheses for negative).
func ParseDecimal(s string) (pgtype.Numeric, error) {
	clean, err := cleanNumeric(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}

	var n pgtype.Numeric
	if err := n.Scan(clean); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}

// cleanNumeric strips currency decoration and validates the numeric shape.
func cleanNumeric(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return "", fmt.Errorf("invalid number %q", raw)
	}
	return s, nil
}

// ParseBool accepts true/false, yes/no, t/f, y/n and 1/0 in any case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}
