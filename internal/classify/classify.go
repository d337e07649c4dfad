package classify

import (
	"regexp"
	"strings"
	"time"
)

// Severity is the ordered set of levels a line can be classified as.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
	SeverityCritical
)

// String returns the canonical upper-case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "WARN"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "INFO"
	}
}

// ParseSeverity maps a severity name to its Severity value.
// WARNING is accepted as an alias for WARN.
func ParseSeverity(name string) (Severity, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "INFO":
		return SeverityInfo, true
	case "WARN", "WARNING":
		return SeverityWarn, true
	case "ERROR":
		return SeverityError, true
	case "CRITICAL":
		return SeverityCritical, true
	default:
		return SeverityInfo, false
	}
}

// SeveritySet holds the severities a source wants notifications for.
type SeveritySet map[Severity]struct{}

// NewSeveritySet builds a set from the given severities.
func NewSeveritySet(levels ...Severity) SeveritySet {
	set := make(SeveritySet, len(levels))
	for _, lvl := range levels {
		set[lvl] = struct{}{}
	}
	return set
}

// Contains reports whether sev is in the set.
func (s SeveritySet) Contains(sev Severity) bool {
	_, ok := s[sev]
	return ok
}

// Event is a classified log line ready for the console and webhook sinks.
type Event struct {
	Source    string
	Severity  Severity
	Message   string
	Timestamp time.Time
}

// Severity keyword pattern. INFO is deliberately absent: an unmatched
// line defaults to INFO, so only the escalating tokens are searched for.
const levelPattern = `(?i)\b(CRITICAL|ERROR|WARN(?:ING)?)\b`

// Syslog header shape: "<month> <day> <time> <hostname> <rest>".
// Captures everything but the hostname token so it can be dropped.
const syslogHeaderPattern = `^([A-Z][a-z]{2}\s+\d{1,2}\s+\d{2}:\d{2}:\d{2})\s+\S+\s+(.*)$`

var (
	levelRegex        = regexp.MustCompile(levelPattern)
	syslogHeaderRegex = regexp.MustCompile(syslogHeaderPattern)
)

// Rules describe how one source's lines are filtered and normalized.
type Rules struct {
	// Filter drops any line it does not match. Nil means keep everything.
	Filter *regexp.Regexp
	// StripSyslogHeader removes the hostname token from syslog-shaped lines.
	StripSyslogHeader bool
}

// Classifier filters, normalizes, and assigns a severity to raw lines.
type Classifier struct {
	rules Rules
}

// NewClassifier creates a classifier for a single source's rules.
func NewClassifier(rules Rules) *Classifier {
	return &Classifier{rules: rules}
}

// Classify processes one raw line (newline already stripped).
// It returns the normalized message and its severity, or ok=false when the
// source's inclusion filter rejects the line.
func (c *Classifier) Classify(line string) (message string, severity Severity, ok bool) {
	if c.rules.Filter != nil && !c.rules.Filter.MatchString(line) {
		return "", SeverityInfo, false
	}

	if c.rules.StripSyslogHeader {
		if m := syslogHeaderRegex.FindStringSubmatch(line); m != nil {
			line = m[1] + " " + m[2]
		}
	}

	return line, DetectSeverity(line), true
}

// DetectSeverity finds the first whole-word severity token in the line,
// case-insensitively. Lines without a token are INFO.
func DetectSeverity(line string) Severity {
	match := levelRegex.FindString(line)
	if match == "" {
		return SeverityInfo
	}

	switch strings.ToUpper(match) {
	case "CRITICAL":
		return SeverityCritical
	case "ERROR":
		return SeverityError
	default:
		// WARN or WARNING
		return SeverityWarn
	}
}
