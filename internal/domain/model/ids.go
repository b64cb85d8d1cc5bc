package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var taskIDPattern = regexp.MustCompile(`^T(\d{2})-(\d{3})$`)
var phaseDirPattern = regexp.MustCompile(`^P(\d{2})-(.+)$`)
var phaseInputPattern = regexp.MustCompile(`^[Pp](\d{2})$`)
var taskDirPattern = regexp.MustCompile(`^T(\d{2})-(\d{3})-(.+)$`)

var lowerCaser = cases.Lower(language.Und)

// TaskID is the unique identifier of a task, matching T<PP>-<NNN>.
type TaskID struct {
	value string
}

// ParseTaskID validates and wraps a raw task id string.
func ParseTaskID(raw string) (TaskID, error) {
	if !taskIDPattern.MatchString(raw) {
		return TaskID{}, fmt.Errorf("invalid task id %q: must match T<PP>-<NNN>", raw)
	}
	return TaskID{value: raw}, nil
}

// MustTaskID panics if raw is not a valid task id. Used in tests and literals.
func MustTaskID(raw string) TaskID {
	id, err := ParseTaskID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the raw id string.
func (t TaskID) String() string { return t.value }

// IsZero reports whether this is the zero value.
func (t TaskID) IsZero() bool { return t.value == "" }

// Equals compares two task ids.
func (t TaskID) Equals(other TaskID) bool { return t.value == other.value }

// Phase returns the two-digit phase component of the task id, e.g. "00".
func (t TaskID) Phase() string {
	m := taskIDPattern.FindStringSubmatch(t.value)
	if m == nil {
		return ""
	}
	return m[1]
}

// PhaseID is a canonicalised phase reference, lowercase "p<PP>".
type PhaseID struct {
	value string
}

// ParsePhaseID canonicalises a user-supplied phase string (case-insensitive).
func ParsePhaseID(raw string) (PhaseID, error) {
	if !phaseInputPattern.MatchString(raw) {
		return PhaseID{}, fmt.Errorf("invalid phase %q: must match [Pp]<PP>", raw)
	}
	return PhaseID{value: lowerCaser.String(raw)}, nil
}

// String returns the canonical "p<PP>" form.
func (p PhaseID) String() string { return p.value }

// Number returns the two-digit phase number, e.g. "00".
func (p PhaseID) Number() string {
	if len(p.value) < 3 {
		return ""
	}
	return p.value[1:]
}

// MatchPhaseDir reports whether a directory name is a phase directory
// ("P<PP>-<slug>") for the given phase, returning the slug on match.
func MatchPhaseDir(dirName string, phase PhaseID) (slug string, ok bool) {
	m := phaseDirPattern.FindStringSubmatch(dirName)
	if m == nil {
		return "", false
	}
	if m[1] != phase.Number() {
		return "", false
	}
	return m[2], true
}

// MatchTaskDir reports whether a directory name is a task directory
// ("T<PP>-<NNN>-<slug>") for the given phase, returning the parsed
// task id and slug on match.
func MatchTaskDir(dirName string, phase PhaseID) (id TaskID, slug string, ok bool) {
	m := taskDirPattern.FindStringSubmatch(dirName)
	if m == nil {
		return TaskID{}, "", false
	}
	if m[1] != phase.Number() {
		return TaskID{}, "", false
	}
	id, err := ParseTaskID(fmt.Sprintf("T%s-%s", m[1], m[2]))
	if err != nil {
		return TaskID{}, "", false
	}
	return id, m[3], true
}

// PhaseNumberFromOrdinal formats an int phase number as a two-digit string.
func PhaseNumberFromOrdinal(n int) (string, error) {
	if n < 0 || n > 99 {
		return "", errors.New("phase number out of range")
	}
	return fmt.Sprintf("%02d", n), nil
}

// ParsePhaseNumber parses a two-digit phase number string into an int.
func ParsePhaseNumber(s string) (int, error) {
	return strconv.Atoi(s)
}
