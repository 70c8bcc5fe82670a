package logger

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestLogger_VerboseGating(t *testing.T) {
	verbose := false
	var buf bytes.Buffer
	log := NewWithCallback("store", func() bool { return verbose }).WithWriter(&buf)

	log.Debug("hidden")
	log.Info("hidden too")
	if buf.Len() != 0 {
		t.Fatalf("Expected no output when not verbose, got %q", buf.String())
	}

	log.Warn("visible %d", 1)
	if !strings.Contains(buf.String(), "WARN [store] visible 1") {
		t.Errorf("Unexpected warn output %q", buf.String())
	}

	buf.Reset()
	verbose = true
	log.Debug("shown")
	if !strings.Contains(buf.String(), "DEBUG [store] shown") {
		t.Errorf("Expected debug output when verbose, got %q", buf.String())
	}
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	log := New("", nil).WithWriter(&buf)

	log.ErrorWithFields("create failed", []Field{Op("create"), ID("doc1"), Err(errors.New("boom")), Duration(time.Second), Count(2)})

	pattern := regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\.\d{3}\] ERROR \[main\] create failed \[op=create id=doc1 error=boom duration=1s count=2\]\n$`)
	if !pattern.MatchString(buf.String()) {
		t.Errorf("Unexpected log line %q", buf.String())
	}
}

func TestLogger_WithComponentSharesWriter(t *testing.T) {
	var buf bytes.Buffer
	root := New("root", nil).WithWriter(&buf)
	child := root.WithComponent("index")

	child.Warn("ratio %d%%", 5)
	if !strings.Contains(buf.String(), "[index] ratio 5%") {
		t.Errorf("Unexpected output %q", buf.String())
	}

	buf.Reset()
	child.Warn("100% raw")
	if !strings.Contains(buf.String(), "100% raw") {
		t.Errorf("Message without args should be written verbatim, got %q", buf.String())
	}
}

func TestNop(t *testing.T) {
	Nop().Error("discarded")
}
