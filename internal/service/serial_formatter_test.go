package service_test

import (
	"testing"
	"time"

	"github.com/donorflow/donation-api/internal/domain"
	"github.com/donorflow/donation-api/internal/service"
	"github.com/stretchr/testify/assert"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSerialCodeFormatter_Render(t *testing.T) {
	f := service.NewSerialCodeFormatter(nil)

	tests := []struct {
		name     string
		id       int64
		settings domain.SequentialSettings
		want     string
	}{
		{
			name:     "plain number",
			id:       7,
			settings: domain.SequentialSettings{},
			want:     "7",
		},
		{
			name:     "padded to width",
			id:       7,
			settings: domain.SequentialSettings{Padding: 4},
			want:     "0007",
		},
		{
			name:     "padding narrower than number",
			id:       12345,
			settings: domain.SequentialSettings{Padding: 4},
			want:     "12345",
		},
		{
			name:     "prefix and suffix around padded number",
			id:       7,
			settings: domain.SequentialSettings{Padding: 4, Prefix: "GV-", Suffix: "-US"},
			want:     "GV-0007-US",
		},
		{
			name:     "prefix only",
			id:       42,
			settings: domain.SequentialSettings{Prefix: "DON-"},
			want:     "DON-42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Render(tt.id, tt.settings))
		})
	}
}

func TestSerialCodeFormatter_DateTags(t *testing.T) {
	clock := fixedClock(time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC))
	f := service.NewSerialCodeFormatter(clock)

	settings := domain.SequentialSettings{
		Padding: 4,
		Prefix:  "GV-{YYYY}-",
		Suffix:  "-{YY}{MM}{DD}",
	}
	assert.Equal(t, "GV-2024-0007-240305", f.Render(7, settings))
}

func TestSerialCodeFormatter_NoTagsNoClockAccess(t *testing.T) {
	// A code without tags renders identically under any clock.
	a := service.NewSerialCodeFormatter(fixedClock(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	b := service.NewSerialCodeFormatter(fixedClock(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))

	settings := domain.SequentialSettings{Prefix: "GV-", Padding: 3}
	assert.Equal(t, a.Render(9, settings), b.Render(9, settings))
}
