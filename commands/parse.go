package commands

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Parse failures the bot maps onto user-facing guidance. Callers branch with
// errors.Is; each kind produces a different hint message.
var (
	// ErrMalformedTime means the token matched neither the clock-time nor the
	// duration grammar.
	ErrMalformedTime = errors.New("time token matches no known format")
	// ErrNotClockTime means the token looked like HH:MM but had out-of-range
	// components.
	ErrNotClockTime = errors.New("invalid clock time")
	// ErrUnparseableDuration means the token contained duration unit letters
	// but no parseable <number><unit> terms.
	ErrUnparseableDuration = errors.New("unparseable duration")
	// ErrMissingTask means no task text followed the time token.
	ErrMissingTask = errors.New("no task text after the time token")
)

var (
	clockPattern    = regexp.MustCompile(`^(\d{1,2}):(\d{2})([apAP][mM])?$`)
	durationPattern = regexp.MustCompile(`(\d+(\.\d+)?)(h|m|s)`)
)

// unitSeconds maps duration unit letters to seconds.
var unitSeconds = map[string]float64{"h": 3600, "m": 60, "s": 1}

// ParseSchedule splits input into a time expression and task text and resolves
// the expression against now. The first whitespace-delimited token is always
// the time expression; everything after the first whitespace run is the task
// verbatim.
func ParseSchedule(input string, now time.Time) (time.Time, string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return time.Time{}, "", ErrMalformedTime
	}

	token := trimmed
	task := ""
	if i := strings.IndexFunc(trimmed, unicode.IsSpace); i >= 0 {
		token = trimmed[:i]
		task = strings.TrimLeftFunc(trimmed[i:], unicode.IsSpace)
	}

	fireAt, err := ResolveTimeToken(token, now)
	if err != nil {
		return time.Time{}, "", err
	}
	if task == "" {
		return time.Time{}, "", ErrMissingTask
	}
	return fireAt, task, nil
}

// ResolveTimeToken parses a single time token. Clock times ("13:49",
// "7:15pm") resolve against now's date; a time not strictly in the future
// rolls over to the next day. Duration tokens ("2h15m", "3.5h", "1h1h") are
// summed term by term, repeats included.
func ResolveTimeToken(token string, now time.Time) (time.Time, error) {
	if m := clockPattern.FindStringSubmatch(token); m != nil {
		return resolveClock(m, now)
	}
	if strings.ContainsAny(token, "hms") {
		secs, err := sumDurationTerms(token)
		if err != nil {
			return time.Time{}, err
		}
		return now.Add(time.Duration(secs * float64(time.Second))), nil
	}
	return time.Time{}, ErrMalformedTime
}

func resolveClock(m []string, now time.Time) (time.Time, error) {
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	meridiem := strings.ToLower(m[3])

	if minute > 59 {
		return time.Time{}, fmt.Errorf("%w: minute %d out of range", ErrNotClockTime, minute)
	}
	if meridiem == "" {
		if hour > 23 {
			return time.Time{}, fmt.Errorf("%w: hour %d out of range", ErrNotClockTime, hour)
		}
	} else {
		if hour < 1 || hour > 12 {
			return time.Time{}, fmt.Errorf("%w: hour %d out of 12-hour range", ErrNotClockTime, hour)
		}
		// 12am is midnight, 12pm is noon.
		if meridiem == "am" && hour == 12 {
			hour = 0
		} else if meridiem == "pm" && hour != 12 {
			hour += 12
		}
	}

	at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at, nil
}

func sumDurationTerms(token string) (float64, error) {
	matches := durationPattern.FindAllStringSubmatch(token, -1)
	if len(matches) == 0 {
		return 0, ErrUnparseableDuration
	}

	total := 0.0
	for _, m := range matches {
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad number %q", ErrUnparseableDuration, m[1])
		}
		total += amount * unitSeconds[m[3]]
	}
	return total, nil
}
