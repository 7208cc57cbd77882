package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDescribeSpiciness(t *testing.T) {
	tests := []struct {
		level SpicinessLevel
		want  string
	}{
		{1, SpicinessMild},
		{2, SpicinessMild},
		{3, SpicinessMedium},
		{4, SpicinessMedium},
		{5, SpicinessHot},
		{0, SpicinessUnknown},
		{6, SpicinessUnknown},
		{-1, SpicinessUnknown},
		{99, SpicinessUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DescribeSpiciness(tt.level))
			assert.Equal(t, tt.want, tt.level.Description())
		})
	}
}

func TestDescribeSpicinessTotal(t *testing.T) {
	labels := map[string]bool{
		SpicinessMild: true, SpicinessMedium: true, SpicinessHot: true, SpicinessUnknown: true,
	}
	rapid.Check(t, func(t *rapid.T) {
		level := SpicinessLevel(rapid.Int().Draw(t, "level"))
		got := DescribeSpiciness(level)
		if !labels[got] {
			t.Fatalf("level %d: unexpected label %q", level, got)
		}
		if got != DescribeSpiciness(level) {
			t.Fatalf("level %d: label not stable", level)
		}
		if level.Valid() == (got == SpicinessUnknown) {
			t.Fatalf("level %d: valid=%v but label %q", level, level.Valid(), got)
		}
	})
}
