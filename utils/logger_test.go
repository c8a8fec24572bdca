package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerDebugIsOptIn(t *testing.T) {
	var out bytes.Buffer
	l := newLogger(&out, &out)

	l.Debug("[loader] %d rows", 5)
	if out.Len() != 0 {
		t.Errorf("debug line written while disabled: %q", out.String())
	}

	l.SetDebug(true)
	l.Debug("[loader] %d rows", 5)
	if !strings.Contains(out.String(), "[loader] 5 rows") {
		t.Errorf("debug line missing: %q", out.String())
	}
}

func TestLoggerSplitsErrorStream(t *testing.T) {
	var out, errOut bytes.Buffer
	l := newLogger(&out, &errOut)

	l.Info("[pipeline] prepared %d listings", 3)
	l.Error("[pipeline] %s", "boom")

	if !strings.Contains(out.String(), "prepared 3 listings") {
		t.Errorf("info line missing: %q", out.String())
	}
	if strings.Contains(out.String(), "boom") {
		t.Error("error line written to the info stream")
	}
	if !strings.Contains(errOut.String(), "boom") {
		t.Errorf("error line missing: %q", errOut.String())
	}
}
