package lyrics

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ParseLRC turns LRC text into a sorted line-timestamped track. Lines with
// several time tags are repeated for each tag, metadata tags such as [ar:...]
// are skipped and a tag with no text is kept as a silence marker.
func ParseLRC(raw string) LineTimestamp {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	rows := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	result := make(LineTimestamp, 0, len(rows))

	for _, row := range rows {
		trimmed := strings.TrimSpace(row)
		if trimmed == "" {
			continue
		}

		stamps, text := splitLrcLine(trimmed)
		for _, stamp := range stamps {
			result = append(result, Line{Timestamp: stamp, Text: text})
		}
	}

	if len(result) == 0 {
		return nil
	}

	// stable keeps file order among equal timestamps
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result
}

// FormatTimestamp renders d as m:ss.xx.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	secs := (d - time.Duration(minutes)*time.Minute).Seconds()
	return fmt.Sprintf("%d:%05.2f", minutes, secs)
}

func splitLrcLine(line string) ([]time.Duration, string) {
	var stamps []time.Duration
	rest := line

	for strings.HasPrefix(rest, "[") {
		endIndex := strings.Index(rest, "]")
		if endIndex <= 1 {
			break
		}

		stamp, err := parseLrcTime(rest[1:endIndex])
		if err != nil {
			break
		}

		stamps = append(stamps, stamp)
		rest = rest[endIndex+1:]
	}

	return stamps, strings.TrimSpace(rest)
}

func parseLrcTime(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, errors.New("empty time value")
	}

	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time format: %s", raw)
	}

	var hours, minutes, seconds float64
	var err error

	if len(parts) == 3 {
		hours, err = parseFloatSafe(parts[0])
		if err != nil {
			return 0, err
		}
		parts = parts[1:]
	}

	minutes, err = parseFloatSafe(parts[0])
	if err != nil {
		return 0, err
	}
	seconds, err = parseFloatSafe(parts[1])
	if err != nil {
		return 0, err
	}

	total := hours*3600 + minutes*60 + seconds
	if total < 0 {
		return 0, errors.New("negative time not allowed")
	}

	return time.Duration(total * float64(time.Second)).Round(time.Millisecond), nil
}

func parseFloatSafe(s string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse float %q: %w", s, err)
	}
	return value, nil
}
