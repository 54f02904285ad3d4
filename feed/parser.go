package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Classification is the decoded form of a class name. Classified is false
// when the university marker is not one we know; the remaining fields are
// then best effort.
type Classification struct {
	Classified  bool
	StudentType StudentType
	University  University
	UnitName    string
}

// Decode reads the fixed-offset markers of a class name. Unknown markers
// leave the corresponding field unspecified.
func Decode(className string) Classification {
	var c Classification
	if len(className) >= studentTypeEnd {
		switch st := StudentType(className[studentTypeStart:studentTypeEnd]); st {
		case FullTime, PartTime:
			c.StudentType = st
		}
	}
	if len(className) >= universityEnd {
		switch u := University(className[universityStart:universityEnd]); u {
		case UCD, MUR:
			c.University = u
		}
	}
	if len(className) > unitNameStart {
		c.UnitName = className[unitNameStart:]
	}
	c.Classified = c.University != UniversityUnspecified
	return c
}

// Parse turns feed records into schedule entries. Only the first day of each
// record is read. Malformed classes still produce entries, flagged or with a
// blank classification.
func Parse(records []Record) []Entry {
	var entries []Entry
	for _, record := range records {
		if len(record.Days) == 0 {
			continue
		}
		day := record.Days[0]
		for _, class := range day.Classes {
			entries = append(entries, parseClass(record.Classroom, day.Date, class)...)
		}
	}
	return entries
}

func parseClass(classroom, date string, class Class) []Entry {
	startTime, startErr := normalizeStartTime(class.StartTime)
	normalizedDate, dateErr := normalizeDate(date)
	base := Entry{
		Location:  classroom,
		StartTime: startTime,
		Date:      normalizedDate,
		Duration:  class.Duration,
	}
	isStudyRoom := class.EventName == StudyRoom

	var entries []Entry
	c := Decode(class.ClassName)
	switch c.University {
	case UCD:
		e := base
		e.StudentType = c.StudentType
		e.University = c.University
		e.ClassCode = stripSpaces(c.UnitName)
		entries = append(entries, e)
	case MUR:
		entries = append(entries, murEntry(base, c, class.EventName))
	default:
		code := stripSpaces(class.ClassName)
		if code != "" && !isStudyRoom {
			e := base
			e.ClassCode = code
			entries = append(entries, e)
		}
	}

	if isStudyRoom {
		e := base
		e.ClassCode = StudyRoom
		entries = append(entries, e)
	}

	for i := range entries {
		if c.Classified && entries[i].ClassCode == "" {
			entries[i].DataIssue = addIssue(entries[i].DataIssue, fmt.Sprintf("Missing unit name in %q", class.ClassName))
		}
		if startErr != nil {
			entries[i].DataIssue = addIssue(entries[i].DataIssue, startErr.Error())
		}
		if dateErr != nil {
			entries[i].DataIssue = addIssue(entries[i].DataIssue, dateErr.Error())
		}
	}
	return entries
}

// murEntry splits an optional group qualifier off the unit name and checks
// the unit against the separately encoded event name.
func murEntry(base Entry, c Classification, eventName string) Entry {
	e := base
	e.StudentType = c.StudentType
	e.University = c.University

	unit := c.UnitName
	if i := strings.Index(unit, groupSeparator); i > 0 {
		e.GroupRestriction = strings.TrimSpace(unit[i+1:])
		unit = unit[:i]
	}
	unit = strings.TrimSpace(unit)
	if i := strings.Index(eventName, groupSeparator); i > 0 && e.GroupRestriction == "" {
		e.GroupRestriction = strings.TrimSpace(eventName[i+1:])
	}
	e.ClassCode = stripSpaces(unit)

	if !strings.Contains(eventName, unit) && !strings.Contains(stripSpaces(eventName), e.ClassCode) {
		e.DataIssue = addIssue(e.DataIssue, fmt.Sprintf("Issues in raw data: Unit Name = %v but Event Name = %v", unit, eventName))
	}
	return e
}

func addIssue(issue DataIssue, description string) DataIssue {
	if issue.Exists {
		return DataIssue{Exists: true, Description: issue.Description + "; " + description}
	}
	return DataIssue{Exists: true, Description: description}
}

func normalizeStartTime(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range startTimeLayouts {
		t, err := time.Parse(layout, trimmed)
		if err == nil {
			return t.Format(startTimeLayout), nil
		}
	}
	return raw, errors.Errorf("Unparseable start time %q", raw)
}

// normalizeDate rewrites the feed date as YYYY-MM-DD, the form the notifier
// queries by.
func normalizeDate(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, trimmed)
		if err == nil {
			return t.Format(dateLayout), nil
		}
	}
	return raw, errors.Errorf("Unparseable date %q", raw)
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
