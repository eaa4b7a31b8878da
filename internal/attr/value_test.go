package attr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leitmotif-dev/stratum/internal/schema"
)

func TestFromAny(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"string", "hello", String("hello")},
		{"bool", true, Bool(true)},
		{"int", 42, Int(42)},
		{"int64", int64(-7), Int(-7)},
		{"uint", uint(9), Int(9)},
		{"float64", 2.5, Float(2.5)},
		{"time", ts, Time(ts)},
		{"value passthrough", Ref("a1"), Ref("a1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.in)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestFromAny_Bytes(t *testing.T) {
	got, err := FromAny([]byte{0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, Bytes{0x01, 0x02}, got)
}

func TestFromAny_Rejects(t *testing.T) {
	_, err := FromAny(nil)
	require.Error(t, err)

	_, err = FromAny(struct{}{})
	require.Error(t, err)

	_, err = FromAny(uint64(1) << 63)
	require.Error(t, err)
}

func TestCoerce(t *testing.T) {
	v, err := Coerce(schema.KindFloat, 3)
	require.NoError(t, err)
	assert.Equal(t, Float(3), v)

	v, err = Coerce(schema.KindInt, 4.0)
	require.NoError(t, err)
	assert.Equal(t, Int(4), v)

	_, err = Coerce(schema.KindInt, 4.5)
	require.Error(t, err)

	v, err = Coerce(schema.KindRef, "a1")
	require.NoError(t, err)
	assert.Equal(t, Ref("a1"), v)

	v, err = Coerce(schema.KindTime, "2024-03-01T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), v.(Time).Std())

	v, err = Coerce(schema.KindBytes, "AQI=")
	require.NoError(t, err)
	assert.Equal(t, Bytes{0x01, 0x02}, v)

	_, err = Coerce(schema.KindBool, "true")
	require.Error(t, err, "bool coercion from string is not supported")
}

func TestParse(t *testing.T) {
	tests := []struct {
		kind schema.Kind
		in   string
		want Value
	}{
		{schema.KindString, "x", String("x")},
		{schema.KindRef, "a1", Ref("a1")},
		{schema.KindInt, "-12", Int(-12)},
		{schema.KindFloat, "1.25", Float(1.25)},
		{schema.KindBool, "true", Bool(true)},
		{schema.KindBytes, "AQI=", Bytes{0x01, 0x02}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := Parse(tt.kind, tt.in)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %#v", got)
		})
	}

	got, err := Parse(schema.KindTime, "2024-03-01T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), got.(Time).Std())
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse(schema.KindInt, "twelve")
	require.Error(t, err)

	_, err = Parse(schema.KindTime, "yesterday")
	require.Error(t, err)

	_, err = Parse(schema.KindBytes, "!!not-base64!!")
	require.Error(t, err)
}

func TestEqual(t *testing.T) {
	loc := time.FixedZone("plus2", 2*60*60)
	utc := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, Equal(String("a"), String("a")))
	assert.False(t, Equal(String("1"), Int(1)))
	assert.True(t, Equal(Time(utc), Time(utc.In(loc))), "times compare by instant")
	assert.True(t, Equal(Bytes{1, 2}, Bytes{1, 2}))
	assert.False(t, Equal(Bytes{1, 2}, Bytes{1}))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, Int(0)))
}
