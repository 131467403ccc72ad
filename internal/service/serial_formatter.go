package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/donorflow/donation-api/internal/domain"
)

// SerialCodeFormatter turns a raw sequential id into the display serial
// code: zero-padding, then prefix and suffix, then date-tag expansion.
//
// Format: {PREFIX}{PADDED-NUMBER}{SUFFIX}
// Example: settings {Prefix:"GV-", Padding:4} render id 7 as "GV-0007";
// a prefix of "GV-{YYYY}-" renders as "GV-2024-0007".
type SerialCodeFormatter struct {
	now func() time.Time
}

// NewSerialCodeFormatter creates a formatter. A nil clock means wall-clock
// time; tests inject a fixed clock to pin the date tags.
func NewSerialCodeFormatter(now func() time.Time) *SerialCodeFormatter {
	if now == nil {
		now = time.Now
	}
	return &SerialCodeFormatter{now: now}
}

// Render formats a sequential id per the given settings. Pure except for
// the date tags, which resolve against the formatter's clock.
func (f *SerialCodeFormatter) Render(sequentialID int64, settings domain.SequentialSettings) string {
	code := strconv.FormatInt(sequentialID, 10)

	if settings.Padding > 0 && len(code) < settings.Padding {
		code = strings.Repeat("0", settings.Padding-len(code)) + code
	}

	if settings.Prefix != "" {
		code = settings.Prefix + code
	}
	if settings.Suffix != "" {
		code = code + settings.Suffix
	}

	return f.expandDateTags(code)
}

// expandDateTags resolves {YYYY} {YY} {MM} {DD} against the clock.
func (f *SerialCodeFormatter) expandDateTags(code string) string {
	if !strings.Contains(code, "{") {
		return code
	}

	t := f.now()
	return strings.NewReplacer(
		"{YYYY}", fmt.Sprintf("%04d", t.Year()),
		"{YY}", t.Format("06"),
		"{MM}", t.Format("01"),
		"{DD}", t.Format("02"),
	).Replace(code)
}
