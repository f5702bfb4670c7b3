package youtubeadapter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseISODuration converts the API's ISO-8601 duration (e.g. "PT1H2M30S",
// "P1DT2H") into a time.Duration. Only day and smaller components appear in
// video durations, so larger designators are rejected.
func ParseISODuration(raw string) (time.Duration, error) {
	value := strings.TrimSpace(raw)
	if !strings.HasPrefix(value, "P") {
		return 0, fmt.Errorf("invalid iso-8601 duration %q", raw)
	}
	value = value[1:]

	var total time.Duration
	inTime := false
	digits := ""
	seen := false

	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			digits += string(r)
		case r == 'T':
			if inTime || digits != "" {
				return 0, fmt.Errorf("invalid iso-8601 duration %q", raw)
			}
			inTime = true
		default:
			if digits == "" {
				return 0, fmt.Errorf("invalid iso-8601 duration %q", raw)
			}
			n, err := strconv.Atoi(digits)
			if err != nil {
				return 0, fmt.Errorf("invalid iso-8601 duration %q", raw)
			}
			digits = ""

			var unit time.Duration
			switch {
			case r == 'D' && !inTime:
				unit = 24 * time.Hour
			case r == 'H' && inTime:
				unit = time.Hour
			case r == 'M' && inTime:
				unit = time.Minute
			case r == 'S' && inTime:
				unit = time.Second
			default:
				return 0, fmt.Errorf("unsupported designator %q in duration %q", r, raw)
			}
			total += time.Duration(n) * unit
			seen = true
		}
	}

	if digits != "" || !seen {
		// "PT" alone (a live stream) and trailing digits are both invalid.
		return 0, fmt.Errorf("invalid iso-8601 duration %q", raw)
	}
	return total, nil
}
