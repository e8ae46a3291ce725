package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteVersion(t *testing.T) {
	var buf bytes.Buffer
	writeVersion(&buf, "3f2c1e9")
	out := buf.String()

	for _, want := range []string{
		"Manifest to Scale " + Version,
		"Commit:     3f2c1e9",
		"Formats:    pdf, csv, xlsx",
		"ftg  PER-CO-FTG  Fresh To Go",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("version output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteVersionWithoutCommit(t *testing.T) {
	var buf bytes.Buffer
	writeVersion(&buf, "")
	if strings.Contains(buf.String(), "Commit:") {
		t.Fatalf("unexpected commit line:\n%s", buf.String())
	}
}
