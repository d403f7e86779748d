package router

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	scheduleWord = regexp.MustCompile(`(?i)\b(?:time\s*table|schedule|lectures?|class(?:es)?|periods?)\b`)
	dayPattern   = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|today|tomorrow)\b`)
	timePattern  = regexp.MustCompile(`(?i)(\bat\s+)?\b(\d{1,2})(?::(\d{1,2}))?\s*(am\b|pm\b|a\.m\.|p\.m\.)?`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

type clock struct {
	hour, minute int
}

// parseClock finds the first time-of-day mention. A bare number only
// counts when written as "at N". ok reports whether a time was mentioned;
// err reports a mention that is not a valid time.
func parseClock(text string) (c clock, ok bool, err error) {
	for _, m := range timePattern.FindAllStringSubmatch(text, -1) {
		at, hourStr, minStr, meridiem := m[1], m[2], m[3], strings.ToLower(strings.ReplaceAll(m[4], ".", ""))
		if at == "" && minStr == "" && meridiem == "" {
			continue
		}

		hour, _ := strconv.Atoi(hourStr)
		minute := 0
		if minStr != "" {
			minute, _ = strconv.Atoi(minStr)
		}

		switch {
		case minute > 59:
			return clock{}, true, fmt.Errorf("invalid minute %d", minute)
		case meridiem != "" && (hour > 12 || hour == 0):
			return clock{}, true, fmt.Errorf("invalid %s hour %d", meridiem, hour)
		case hour > 23:
			return clock{}, true, fmt.Errorf("invalid hour %d", hour)
		}

		switch {
		case meridiem == "pm" && hour < 12:
			hour += 12
		case meridiem == "am" && hour == 12:
			hour = 0
		}

		return clock{hour: hour, minute: minute}, true, nil
	}

	return clock{}, false, nil
}

func (r *Router) resolveDay(word string) string {
	switch w := strings.ToLower(word); w {
	case "today":
		return r.now().Weekday().String()
	case "tomorrow":
		return r.now().AddDate(0, 0, 1).Weekday().String()
	default:
		return weekdays[w].String()
	}
}

// timetableQuestion rewrites a schedule question into the canonical form
// used by the knowledge base.
func timetableQuestion(day string, c *clock) string {
	var sb strings.Builder
	sb.WriteString("What is the timetable")
	if day != "" {
		sb.WriteString(" for ")
		sb.WriteString(day)
	}
	if c != nil {
		fmt.Fprintf(&sb, " at %02d:%02d", c.hour, c.minute)
	}
	sb.WriteString("?")
	return sb.String()
}

func (r *Router) matchTimetable(ctx context.Context, q Query) (string, bool, error) {
	if !scheduleWord.MatchString(q.Text) {
		return "", false, nil
	}

	var day string
	if m := dayPattern.FindStringSubmatch(q.Text); m != nil {
		day = r.resolveDay(m[1])
	}

	c, hasTime, err := parseClock(q.Text)
	if err != nil {
		return ErrorAnswer, true, nil
	}
	if day == "" && !hasTime {
		return "", false, nil
	}

	var cp *clock
	if hasTime {
		cp = &c
	}

	return r.ask(ctx, timetableQuestion(day, cp)), true, nil
}
