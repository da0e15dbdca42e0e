package uidrange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("valid range", func(t *testing.T) {
		r, err := New(3, 10)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), r.Start())
		assert.Equal(t, uint64(10), r.End())
	})

	t.Run("single value", func(t *testing.T) {
		r, err := New(7, 7)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), r.Size())
	})

	t.Run("start greater than end", func(t *testing.T) {
		_, err := New(10, 5)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("MustNew panics on invalid range", func(t *testing.T) {
		assert.Panics(t, func() { MustNew(10, 5) })
	})
}

func TestRange_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Range
		want bool
	}{
		{"identical", MustNew(1, 5), MustNew(1, 5), true},
		{"partial", MustNew(1, 5), MustNew(3, 10), true},
		{"touching endpoints", MustNew(1, 5), MustNew(5, 8), true},
		{"contained", MustNew(1, 10), MustNew(3, 4), true},
		{"adjacent but disjoint", MustNew(1, 2), MustNew(3, 4), false},
		{"gap", MustNew(1, 2), MustNew(4, 5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestRange_Merge(t *testing.T) {
	t.Run("overlapping", func(t *testing.T) {
		got, err := MustNew(1, 5).Merge(MustNew(3, 10))
		require.NoError(t, err)
		assert.Equal(t, MustNew(1, 10), got)
	})

	t.Run("disjoint", func(t *testing.T) {
		_, err := MustNew(1, 2).Merge(MustNew(4, 5))
		assert.ErrorIs(t, err, ErrDisjoint)
	})
}

func TestRange_Contains(t *testing.T) {
	r := MustNew(120, 150)
	assert.True(t, r.Contains(120))
	assert.True(t, r.Contains(150))
	assert.False(t, r.Contains(119))
	assert.False(t, r.Contains(151))
	assert.Equal(t, "[120, 150]", r.String())
}

func TestRange_SizeSaturates(t *testing.T) {
	assert.Equal(t, ^uint64(0), MustNew(0, ^uint64(0)).Size())
	assert.Equal(t, uint64(31), MustNew(120, 150).Size())
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		input []Range
		want  []Range
	}{
		{
			name:  "empty",
			input: nil,
			want:  []Range{},
		},
		{
			name:  "overlapping pair",
			input: []Range{MustNew(1, 5), MustNew(3, 10)},
			want:  []Range{MustNew(1, 10)},
		},
		{
			name:  "disjoint pair stays ordered",
			input: []Range{MustNew(4, 5), MustNew(1, 2)},
			want:  []Range{MustNew(1, 2), MustNew(4, 5)},
		},
		{
			name:  "touching endpoints merge",
			input: []Range{MustNew(1, 5), MustNew(5, 6)},
			want:  []Range{MustNew(1, 6)},
		},
		{
			name:  "contained range absorbed",
			input: []Range{MustNew(1, 100), MustNew(20, 30), MustNew(200, 300)},
			want:  []Range{MustNew(1, 100), MustNew(200, 300)},
		},
		{
			name:  "chain",
			input: []Range{MustNew(8, 12), MustNew(1, 3), MustNew(2, 9), MustNew(20, 21)},
			want:  []Range{MustNew(1, 12), MustNew(20, 21)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.input))
		})
	}
}

func TestMerge_Idempotent(t *testing.T) {
	once := Merge([]Range{MustNew(30, 40), MustNew(1, 5), MustNew(3, 10), MustNew(41, 41)})
	twice := Merge(once)
	assert.Equal(t, once, twice)
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	input := []Range{MustNew(4, 5), MustNew(1, 2)}
	Merge(input)
	assert.Equal(t, []Range{MustNew(4, 5), MustNew(1, 2)}, input)
}

func TestSplitAt(t *testing.T) {
	tests := []struct {
		name      string
		input     []Range
		threshold uint64
		want      []Range
	}{
		{
			name:      "straddling range is split",
			input:     []Range{MustNew(9_999_999_000, 10_000_000_500)},
			threshold: DefaultThreshold,
			want: []Range{
				MustNew(9_999_999_000, 9_999_999_999),
				MustNew(10_000_000_000, 10_000_000_500),
			},
		},
		{
			name:      "range starting at threshold untouched",
			input:     []Range{MustNew(10_000_000_000, 10_000_000_500)},
			threshold: DefaultThreshold,
			want:      []Range{MustNew(10_000_000_000, 10_000_000_500)},
		},
		{
			name:      "range below threshold untouched",
			input:     []Range{MustNew(1, 9_999_999_999)},
			threshold: DefaultThreshold,
			want:      []Range{MustNew(1, 9_999_999_999)},
		},
		{
			name:      "range ending at threshold",
			input:     []Range{MustNew(5, 10)},
			threshold: 10,
			want:      []Range{MustNew(5, 9), MustNew(10, 10)},
		},
		{
			name:      "zero threshold disables splitting",
			input:     []Range{MustNew(0, 10)},
			threshold: 0,
			want:      []Range{MustNew(0, 10)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitAt(tt.input, tt.threshold))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Range
		wantErr bool
	}{
		{name: "dash", input: "120-150", want: MustNew(120, 150)},
		{name: "comma with spaces", input: " 1 , 99 ", want: MustNew(1, 99)},
		{name: "single value", input: "42", want: MustNew(42, 42)},
		{name: "space separated", input: "1  99", want: MustNew(1, 99)},
		{name: "underscores", input: "1_000-10_000_000_000", want: MustNew(1000, 10_000_000_000)},
		{name: "underscores with spaces", input: "1_000 2_000", want: MustNew(1000, 2000)},
		{name: "leading underscore", input: "_1-5", wantErr: true},
		{name: "double underscore", input: "1__0-5", wantErr: true},
		{name: "three fields", input: "1 2 3", wantErr: true},
		{name: "reversed", input: "10-5", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
		{name: "not a number", input: "a-b", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
