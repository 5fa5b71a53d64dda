package caption

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxSeconds is the exclusive upper bound of a timestamp. It keeps the hour
// field of a timecode to two digits.
const MaxSeconds = 100 * 3600

// FormatTimecode renders seconds as an SRT timecode "HH:MM:SS,mmm".
// Milliseconds are floor((seconds mod 1) * 1000); nothing is rounded up.
// Negative, non-finite or out of range input is a ValidationError.
func FormatTimecode(seconds float64) (string, error) {
	if !finite(seconds) {
		return "", invalid("seconds", -1, "must be finite")
	}
	if seconds < 0 {
		return "", invalid("seconds", -1, "must be non-negative, got %g", seconds)
	}
	if seconds >= MaxSeconds {
		return "", invalid("seconds", -1, "must be below %d, got %g", MaxSeconds, seconds)
	}
	whole := math.Floor(seconds)
	hours := int64(whole) / 3600
	minutes := (int64(whole) % 3600) / 60
	secs := int64(whole) % 60
	millis := int64(math.Floor(math.Mod(seconds, 1) * 1000))
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis), nil
}

// ParseTimecode parses "HH:MM:SS,mmm" (a period is accepted in place of the
// comma) back into seconds.
func ParseTimecode(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, invalid("timecode", -1, "empty timecode")
	}
	normalized := strings.ReplaceAll(value, ".", ",")
	parts := strings.Split(normalized, ",")
	if len(parts) != 2 {
		return 0, invalid("timecode", -1, "invalid timecode %q", value)
	}
	hms := strings.Split(parts[0], ":")
	if len(hms) != 3 {
		return 0, invalid("timecode", -1, "invalid timecode %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	secs, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, invalid("timecode", -1, "invalid timecode %q", value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || secs < 0 || secs > 59 || millis < 0 || millis > 999 {
		return 0, invalid("timecode", -1, "timecode %q out of range", value)
	}
	return float64(hours*3600+minutes*60+secs) + float64(millis)/1000, nil
}
