package app

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCmd_Output(t *testing.T) {
	a := New()
	a.SetVersion("1.2.3", "abc1234", "2026-01-15T10:30:00Z")

	cmd := NewVersionCmd(a)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"1.2.3", "abc1234", "2026-01-15T10:30:00Z"} {
		if !strings.Contains(output, want) {
			t.Errorf("output %q should contain %q", output, want)
		}
	}
}

func TestVersionCmd_DefaultsWhenUnset(t *testing.T) {
	a := New()

	cmd := NewVersionCmd(a)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "dev") {
		t.Errorf("expected default version 'dev', got %q", output)
	}
}
