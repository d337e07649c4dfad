package classify

import (
	"regexp"
	"testing"
)

func TestDetectSeverity_Keywords(t *testing.T) {
	tests := []struct {
		line string
		want Severity
	}{
		{"2024-01-01 ERROR something broke", SeverityError},
		{"all systems nominal", SeverityInfo},
		{"disk usage WARNING low disk", SeverityWarn},
		{"warn: slow response", SeverityWarn},
		{"CRITICAL: out of memory", SeverityCritical},
		{"error and later CRITICAL", SeverityError},
		{"an ERRORish word should not match", SeverityInfo},
		{"", SeverityInfo},
	}

	for _, tc := range tests {
		if got := DetectSeverity(tc.line); got != tc.want {
			t.Errorf("DetectSeverity(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
}

func TestDetectSeverity_CaseInsensitive(t *testing.T) {
	if got := DetectSeverity("critical failure in pump 3"); got != SeverityCritical {
		t.Errorf("expected CRITICAL for lowercase token, got %v", got)
	}
}

func TestClassify_FilterDropsNonMatching(t *testing.T) {
	c := NewClassifier(Rules{Filter: regexp.MustCompile(`ERROR|CRITICAL`)})

	if _, _, ok := c.Classify("INFO nothing wrong"); ok {
		t.Error("expected filtered line to be dropped")
	}

	msg, sev, ok := c.Classify("ERROR real problem")
	if !ok {
		t.Fatal("expected matching line to pass the filter")
	}
	if sev != SeverityError {
		t.Errorf("expected ERROR, got %v", sev)
	}
	if msg != "ERROR real problem" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestClassify_SyslogHeaderStripping(t *testing.T) {
	c := NewClassifier(Rules{StripSyslogHeader: true})

	msg, _, ok := c.Classify("Jan  5 03:04:05 myhost sshd: failed login")
	if !ok {
		t.Fatal("expected line to pass")
	}
	if msg != "Jan  5 03:04:05 sshd: failed login" {
		t.Errorf("hostname not stripped, got %q", msg)
	}
}

func TestClassify_SyslogStrippingLeavesOtherShapesAlone(t *testing.T) {
	c := NewClassifier(Rules{StripSyslogHeader: true})

	tests := []string{
		"2024-01-01T10:00:00Z app started",
		"no timestamp at all",
		"Jan 5 bad time myhost message",
	}
	for _, line := range tests {
		msg, _, ok := c.Classify(line)
		if !ok {
			t.Fatalf("expected %q to pass", line)
		}
		if msg != line {
			t.Errorf("non-syslog line rewritten: %q -> %q", line, msg)
		}
	}
}

func TestClassify_StrippingDisabledPassesThrough(t *testing.T) {
	c := NewClassifier(Rules{})

	line := "Jan  5 03:04:05 myhost sshd: failed login"
	msg, _, ok := c.Classify(line)
	if !ok || msg != line {
		t.Errorf("expected passthrough, got %q (ok=%v)", msg, ok)
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in     string
		want   Severity
		wantOK bool
	}{
		{"ERROR", SeverityError, true},
		{"error", SeverityError, true},
		{" critical ", SeverityCritical, true},
		{"WARNING", SeverityWarn, true},
		{"WARN", SeverityWarn, true},
		{"INFO", SeverityInfo, true},
		{"notice", SeverityInfo, false},
	}

	for _, tc := range tests {
		got, ok := ParseSeverity(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ParseSeverity(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestSeverityString(t *testing.T) {
	pairs := map[Severity]string{
		SeverityInfo:     "INFO",
		SeverityWarn:     "WARN",
		SeverityError:    "ERROR",
		SeverityCritical: "CRITICAL",
	}
	for sev, want := range pairs {
		if sev.String() != want {
			t.Errorf("Severity(%d).String() = %q, want %q", sev, sev.String(), want)
		}
	}
}
