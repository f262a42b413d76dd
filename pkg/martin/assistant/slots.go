package assistant

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Slot extraction. Pure functions over the original-case message; the
// caller supplies the reference time so tests stay deterministic.

// DefaultTaskText is returned when nothing survives prefix stripping.
const DefaultTaskText = "Новая задача"

// DefaultEventTitle is the generic title when no topic keyword matches.
const DefaultEventTitle = "Заблокированное время"

// taskPrefixes are lead-in words stripped from task commands. Compared
// per whitespace token because regexp \b is ASCII-only and never fires
// inside Cyrillic text.
var taskPrefixes = map[string]bool{
	"добавь": true,
	"создай": true,
	"задачу": true,
	"задача": true,
	"дело":   true,
}

// ExtractTaskText strips command lead-ins and truncates at the first
// " и " conjunction, so "добавь задачу: купить молоко и вынести мусор"
// yields "купить молоко".
func ExtractTaskText(message string) string {
	cleaned := strings.ReplaceAll(message, ":", " ")

	var kept []string
	for _, tok := range strings.Fields(cleaned) {
		if taskPrefixes[strings.ToLower(tok)] {
			continue
		}
		kept = append(kept, tok)
	}
	text := strings.Join(kept, " ")

	if i := strings.Index(text, " и "); i >= 0 {
		text = text[:i]
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultTaskText
	}
	return text
}

// TimeRange is an extracted start/end pair. Found reports whether the
// message actually carried a time token; when it did not, Start and End
// still hold the fixed 21:00-22:00 default so downstream consumers
// always have a usable window.
type TimeRange struct {
	Start time.Time
	End   time.Time
	Found bool
}

var reTime = regexp.MustCompile(`(\d{1,2}):?(\d{2})?-(\d{1,2}):?(\d{2})?|(\d{1,2}):?(\d{2})?`)

// ExtractTime scans for "H:MM-H:MM" or a single "H:MM" and resolves it
// against now's calendar day in now's location. A lone start gets
// end = start + 1h. No time token at all yields the fixed 21:00 default
// with Found=false.
func ExtractTime(message string, now time.Time) TimeRange {
	startHour, startMin := 21, 0
	endHour, endMin := 22, 0
	found := false

	if m := reTime.FindStringSubmatch(message); m != nil {
		found = true
		startHour = atoiDefault(firstOf(m[1], m[5]), 21)
		startMin = atoiDefault(firstOf(m[2], m[6]), 0)
		if m[3] != "" {
			endHour = atoiDefault(m[3], startHour+1)
			endMin = atoiDefault(m[4], startMin)
		} else {
			endHour = startHour + 1
			endMin = startMin
		}
	}

	loc := now.Location()
	start := time.Date(now.Year(), now.Month(), now.Day(), startHour, startMin, 0, 0, loc)
	end := time.Date(now.Year(), now.Month(), now.Day(), endHour, endMin, 0, 0, loc)
	return TimeRange{Start: start, End: end, Found: found}
}

func firstOf(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// FormatTimeRange renders a range as "21:00 - 22:00".
func FormatTimeRange(tr TimeRange) string {
	return fmt.Sprintf("%d:%02d - %d:%02d",
		tr.Start.Hour(), tr.Start.Minute(), tr.End.Hour(), tr.End.Minute())
}

var reForClause = regexp.MustCompile(`(?i)для\s+(.+?)(?:\s+в\s+|\s+на\s+|$)`)

// ExtractEventTitle picks a title by topic keyword in fixed priority
// order, then a "для <X>" clause, then the generic default.
func ExtractEventTitle(message string) string {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "чтени") || strings.Contains(m, "читать"):
		return "Чтение в библиотеке"
	case strings.Contains(m, "встреч"):
		return "Встреча"
	case strings.Contains(m, "звонок") || strings.Contains(m, "позвон"):
		return "Телефонный звонок"
	case strings.Contains(m, "спорт") || strings.Contains(m, "трениров"):
		return "Тренировка"
	case strings.Contains(m, "работ"):
		return "Работа"
	}

	if sub := reForClause.FindStringSubmatch(message); sub != nil {
		return strings.TrimSpace(sub[1])
	}
	return DefaultEventTitle
}

// ExtractLocation maps location keywords to a canonical place name.
// Returns "" uniformly when nothing matches.
func ExtractLocation(message string) string {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "библиотек"):
		return "Библиотека"
	case strings.Contains(m, "офис"):
		return "Офис"
	case strings.Contains(m, "дом"):
		return "Дома"
	case strings.Contains(m, "zoom"):
		return "Zoom"
	}
	return ""
}
