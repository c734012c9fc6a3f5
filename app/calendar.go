package app

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// matchDayLayout is the upstream wall-clock format, e.g. 2024-05-10 18:30:00.
	matchDayLayout = "2006-01-02 15:04:05"
	localLayout    = "20060102T150405"
	utcLayout      = "20060102T150405Z"
)

// CalendarEvent represents a single calendar event
type CalendarEvent struct {
	UID      string
	Start    time.Time
	End      time.Time
	Summary  string
	Location string
}

// CalendarBuilder turns a schedule into the team's feed.
type CalendarBuilder struct {
	keyword      string
	duration     time.Duration
	timezoneID   string
	uidDomain    string
	calendarName string
}

// NewCalendarBuilder creates a builder from the feed settings in cfg.
func NewCalendarBuilder(cfg Config) *CalendarBuilder {
	return &CalendarBuilder{
		keyword:      cfg.TeamKeyword,
		duration:     cfg.EventDuration,
		timezoneID:   cfg.TimezoneID,
		uidDomain:    cfg.UIDDomain,
		calendarName: cfg.CalendarName,
	}
}

// Events selects the team's matches and converts them to events, sorted by
// start time. Only selected matches are validated, so a broken fixture
// between two other teams never fails the feed.
func (b *CalendarBuilder) Events(sched Schedule) ([]CalendarEvent, error) {
	// A Caser is stateful; one per call keeps the builder safe to share.
	upper := cases.Upper(language.Und)
	keyword := upper.String(b.keyword)

	var events []CalendarEvent
	for _, round := range sched.Rounds {
		for _, m := range round.Matches {
			names := upper.String(deref(m.LocalTeam) + " " + deref(m.VisitorTeam))
			if !strings.Contains(names, keyword) {
				continue
			}

			event, err := b.event(m)
			if err != nil {
				return nil, fmt.Errorf("round %s: %w", round.ID, err)
			}
			events = append(events, event)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].UID < events[j].UID
	})
	return events, nil
}

func (b *CalendarBuilder) event(m Match) (CalendarEvent, error) {
	if m.MatchDay == nil {
		return CalendarEvent{}, fmt.Errorf("%w: matchDay missing", ErrSchema)
	}
	start, err := parseMatchDay(string(*m.MatchDay))
	if err != nil {
		return CalendarEvent{}, err
	}

	if m.LocalTeam == nil || m.VisitorTeam == nil {
		return CalendarEvent{}, fmt.Errorf("%w: team name missing", ErrSchema)
	}
	if m.ID == nil || *m.ID == "" {
		return CalendarEvent{}, fmt.Errorf("%w: idMatch missing", ErrSchema)
	}

	return CalendarEvent{
		UID:      fmt.Sprintf("%s@%s", *m.ID, b.uidDomain),
		Start:    start,
		End:      start.Add(b.duration),
		Summary:  fmt.Sprintf("%s vs %s", *m.LocalTeam, *m.VisitorTeam),
		Location: matchLocation(m),
	}, nil
}

// parseMatchDay parses a naive wall-clock time. The result carries the UTC
// location only as a container; it is never converted.
func parseMatchDay(s string) (time.Time, error) {
	// time.Parse tolerates trailing fractional seconds; the upstream format
	// does not.
	if len(s) != len(matchDayLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrDateParse, s)
	}
	t, err := time.Parse(matchDayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrDateParse, s, err)
	}
	return t, nil
}

// matchLocation prefers the field name, then the town.
func matchLocation(m Match) string {
	if field := deref(m.Field); field != "" {
		return field
	}
	return deref(m.Town)
}

func deref(t *Text) string {
	if t == nil {
		return ""
	}
	return string(*t)
}

// escapeLineBreaks keeps a value on a single content line
func escapeLineBreaks(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\\n")
	text = strings.ReplaceAll(text, "\r", "\\n")
	text = strings.ReplaceAll(text, "\n", "\\n")
	return text
}

// Feed serializes events into a VCALENDAR. now is written as DTSTAMP on
// every event. Long lines are not folded.
func (b *CalendarBuilder) Feed(events []CalendarEvent, now time.Time) string {
	var sb strings.Builder

	// Calendar header
	sb.WriteString("BEGIN:VCALENDAR\r\n")
	sb.WriteString("VERSION:2.0\r\n")
	sb.WriteString("CALSCALE:GREGORIAN\r\n")
	sb.WriteString("METHOD:PUBLISH\r\n")
	if b.calendarName != "" {
		sb.WriteString(fmt.Sprintf("X-WR-CALNAME:%s\r\n", escapeLineBreaks(b.calendarName)))
		sb.WriteString(fmt.Sprintf("X-WR-TIMEZONE:%s\r\n", b.timezoneID))
	}

	dtstamp := now.UTC().Format(utcLayout)

	for _, event := range events {
		sb.WriteString("BEGIN:VEVENT\r\n")
		sb.WriteString(fmt.Sprintf("UID:%s\r\n", escapeLineBreaks(event.UID)))
		sb.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", dtstamp))
		sb.WriteString(fmt.Sprintf("DTSTART;TZID=%s:%s\r\n", b.timezoneID, event.Start.Format(localLayout)))
		sb.WriteString(fmt.Sprintf("DTEND;TZID=%s:%s\r\n", b.timezoneID, event.End.Format(localLayout)))
		sb.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeLineBreaks(event.Summary)))
		sb.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeLineBreaks(event.Location)))
		sb.WriteString("END:VEVENT\r\n")
	}

	sb.WriteString("END:VCALENDAR\r\n")
	return sb.String()
}
