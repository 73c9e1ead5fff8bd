package core

import (
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_Scalars(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		target any
		want   any
		wantOK bool
	}{
		{"string pass-through", "  Alice ", "", "  Alice ", true},
		{"int", "42", 0, 42, true},
		{"int with spaces", " -7 ", 0, -7, true},
		{"int rejects decimal", "4.2", 0, 0, false},
		{"int8 in range", "127", int8(0), int8(127), true},
		{"int8 out of range", "128", int8(0), int8(0), false},
		{"uint rejects negative", "-1", uint(0), uint(0), false},
		{"uint16", "65535", uint16(0), uint16(65535), true},
		{"float with currency", "$1,234.50", 0.0, 1234.5, true},
		{"float accounting negative", "(12.5)", 0.0, -12.5, true},
		{"float32", "1.5", float32(0), float32(1.5), true},
		{"float rejects text", "abc", 0.0, 0.0, false},
		{"bool yes", "Yes", false, true, true},
		{"bool zero", "0", true, false, true},
		{"bool f", "F", true, false, true},
		{"bool invalid", "maybe", false, false, false},
		{"duration", "1h30m", time.Duration(0), 90 * time.Minute, true},
		{"duration invalid", "soon", time.Duration(0), time.Duration(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Convert(tt.input, reflect.TypeOf(tt.target))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Interface())
		})
	}
}

func TestConvert_BlankIsSoftFailure(t *testing.T) {
	types := []reflect.Type{
		reflect.TypeFor[string](),
		reflect.TypeFor[int](),
		reflect.TypeFor[float64](),
		reflect.TypeFor[bool](),
		reflect.TypeFor[time.Time](),
		reflect.TypeFor[pgtype.Numeric](),
		reflect.TypeFor[testStatus](),
		reflect.TypeFor[*int](),
		reflect.TypeFor[uuid.UUID](),
	}

	for _, typ := range types {
		for _, input := range []string{"", "   ", "\t"} {
			got, ok := Convert(input, typ)
			assert.False(t, ok, "%s %q", typ, input)
			assert.True(t, got.IsZero(), "%s %q should give the zero value", typ, input)
		}
	}
}

func TestConvert_Enum(t *testing.T) {
	t.Run("integer enum matches name case-insensitively", func(t *testing.T) {
		got, ok := Convert("inACTIVE", reflect.TypeFor[testStatus]())
		require.True(t, ok)
		assert.Equal(t, statusInactive, got.Interface())
	})

	t.Run("integer enum accepts ordinal", func(t *testing.T) {
		got, ok := Convert("2", reflect.TypeFor[testStatus]())
		require.True(t, ok)
		assert.Equal(t, statusPending, got.Interface())
	})

	t.Run("integer enum rejects out of range ordinal", func(t *testing.T) {
		got, ok := Convert("9", reflect.TypeFor[testStatus]())
		assert.False(t, ok)
		assert.Equal(t, statusActive, got.Interface())
	})

	t.Run("string enum stores canonical spelling", func(t *testing.T) {
		got, ok := Convert(" green ", reflect.TypeFor[testColor]())
		require.True(t, ok)
		assert.Equal(t, testColor("Green"), got.Interface())
	})

	t.Run("unknown name reports invalid enum", func(t *testing.T) {
		_, err := convertValue("Purple", reflect.TypeFor[testColor]())
		assert.ErrorContains(t, err, "invalid enum")
	})
}

func TestConvert_Timestamps(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"01/15/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"1/5/2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"Jan 15, 2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-01-15T10:30:00Z", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-01-15 10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"20240115", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Convert(tt.input, reflect.TypeFor[time.Time]())
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got.Interface().(time.Time)), "got %v", got.Interface())
		})
	}

	t.Run("invalid date", func(t *testing.T) {
		_, err := convertValue("not a date", reflect.TypeFor[time.Time]())
		assert.ErrorContains(t, err, "invalid date")
	})
}

func TestParseTimestamp_TwoDigitYear(t *testing.T) {
	original := TwoDigitYearPivot
	defer func() { TwoDigitYearPivot = original }()
	TwoDigitYearPivot = 20

	future := (time.Now().Year() + 30) % 100
	got, err := ParseTimestamp("1/2/" + twoDigits(future))
	require.NoError(t, err)
	assert.Less(t, got.Year(), time.Now().Year(), "years past the pivot belong to the previous century")

	got, err = ParseTimestamp("1/2/05")
	require.NoError(t, err)
	assert.Equal(t, 2005, got.Year())
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}

func TestConvert_PgTypes(t *testing.T) {
	t.Run("numeric with currency", func(t *testing.T) {
		got, ok := Convert("$1,234.56", reflect.TypeFor[pgtype.Numeric]())
		require.True(t, ok)
		n := got.Interface().(pgtype.Numeric)
		require.True(t, n.Valid)
		f, err := n.Float64Value()
		require.NoError(t, err)
		assert.InDelta(t, 1234.56, f.Float64, 0.0001)
	})

	t.Run("numeric rejects infinity", func(t *testing.T) {
		_, ok := Convert("-Infinity", reflect.TypeFor[pgtype.Numeric]())
		assert.False(t, ok)
	})

	t.Run("date truncates time", func(t *testing.T) {
		got, ok := Convert("2024-03-01T18:00:00Z", reflect.TypeFor[pgtype.Date]())
		require.True(t, ok)
		d := got.Interface().(pgtype.Date)
		assert.True(t, d.Valid)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), d.Time)
	})

	t.Run("timestamp", func(t *testing.T) {
		got, ok := Convert("2024-03-01 18:00:00", reflect.TypeFor[pgtype.Timestamp]())
		require.True(t, ok)
		assert.True(t, got.Interface().(pgtype.Timestamp).Valid)
	})

	t.Run("scanner fallback", func(t *testing.T) {
		got, ok := Convert("hello", reflect.TypeFor[pgtype.Text]())
		require.True(t, ok)
		assert.Equal(t, pgtype.Text{String: "hello", Valid: true}, got.Interface())
	})
}

func TestConvert_BigRat(t *testing.T) {
	got, ok := Convert("(1,000.25)", reflect.TypeFor[big.Rat]())
	require.True(t, ok)
	r := got.Interface().(big.Rat)
	assert.Equal(t, "-4001/4", r.String())
}

func TestConvert_TextUnmarshalerFallback(t *testing.T) {
	id := uuid.New()
	got, ok := Convert(id.String(), reflect.TypeFor[uuid.UUID]())
	require.True(t, ok)
	assert.Equal(t, id, got.Interface())

	_, ok = Convert("not-a-uuid", reflect.TypeFor[uuid.UUID]())
	assert.False(t, ok)
}

func TestConvert_Pointer(t *testing.T) {
	got, ok := Convert("12", reflect.TypeFor[*int]())
	require.True(t, ok)
	require.NotNil(t, got.Interface())
	assert.Equal(t, 12, *got.Interface().(*int))

	got, ok = Convert("x", reflect.TypeFor[*int]())
	assert.False(t, ok)
	assert.Nil(t, got.Interface())
}

func TestConvert_UnsupportedType(t *testing.T) {
	typ := reflect.TypeFor[map[string]int]()
	assert.False(t, Supported(typ))

	got, ok := Convert("x", typ)
	assert.False(t, ok)
	assert.True(t, got.IsZero())

	_, err := convertValue("x", typ)
	assert.ErrorIs(t, err, ErrUnsupportedField)
}

type panickyText struct{}

func (*panickyText) UnmarshalText([]byte) error { panic("boom") }

func TestConvert_RecoversFromPanickingUnmarshaler(t *testing.T) {
	assert.NotPanics(t, func() {
		_, ok := Convert("x", reflect.TypeFor[panickyText]())
		assert.False(t, ok)
	})
}

func TestParseBool(t *testing.T) {
	for _, in := range []string{"true", "T", "yes", "Y", "1"} {
		got, err := ParseBool(in)
		require.NoError(t, err, in)
		assert.True(t, got, in)
	}
	for _, in := range []string{"false", "f", "NO", "n", "0"} {
		got, err := ParseBool(in)
		require.NoError(t, err, in)
		assert.False(t, got, in)
	}
	_, err := ParseBool("2")
	assert.ErrorContains(t, err, "invalid boolean")
}
