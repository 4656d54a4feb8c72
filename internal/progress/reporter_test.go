package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewReporterInCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter(nil).(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}

func TestNewReporterInTerminal(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	if _, ok := NewReporter(&bytes.Buffer{}).(*TerminalReporter); !ok {
		t.Error("expected TerminalReporter outside CI")
	}
}

func TestCIReporterLines(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{w: &buf}
	r.Start(2, "Rendering diagrams")
	r.Update(1, "a.puml")
	r.Update(2, "b.puml")
	r.Finish("")

	want := "Rendering diagrams (2 items)\n[1/2] a.puml\n[2/2] b.puml\ndone\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestCIReporterSpinner(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{w: &buf}
	r.Start(-1, "Generating diagram")
	r.Update(-1, "waiting for model")
	r.Finish("Diagram ready")

	out := buf.String()
	if strings.Contains(out, "[") {
		t.Errorf("spinner mode should not print counters: %q", out)
	}
	if !strings.HasSuffix(out, "Diagram ready\n") {
		t.Errorf("missing summary: %q", out)
	}
}

func TestTerminalReporterWritesSummary(t *testing.T) {
	var buf bytes.Buffer
	r := &TerminalReporter{w: &buf}
	r.Start(3, "Rendering")
	r.Update(1, "one")
	r.Finish("3 diagrams rendered")
	if !strings.Contains(buf.String(), "3 diagrams rendered") {
		t.Errorf("summary missing from %q", buf.String())
	}
}
