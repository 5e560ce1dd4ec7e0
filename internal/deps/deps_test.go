package deps

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheck(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	if st := Check(Requirement{Name: "Present", Command: present}); !st.Available || st.Detail != "" {
		t.Fatalf("expected requirement to be available, got %#v", st)
	}
	missing := Check(Requirement{Name: "Missing", Command: "clearly-not-present-binary"})
	if missing.Available || missing.Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", missing)
	}
	if missing.Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", missing.Command)
	}
	if blank := Check(Requirement{Name: "Blank", Command: "  "}); blank.Available || blank.Detail != "command not configured" {
		t.Fatalf("unexpected blank result: %#v", blank)
	}
}

func TestMissingSkipsOptional(t *testing.T) {
	statuses := []Status{
		{Name: "ok", Available: true},
		{Name: "gone"},
		{Name: "nice-to-have", Optional: true},
	}
	got := Missing(statuses)
	if len(got) != 1 || got[0].Name != "gone" {
		t.Fatalf("unexpected missing set %#v", got)
	}
}

func TestCheckMagickReadsVersion(t *testing.T) {
	binDir := t.TempDir()
	script := "#!/bin/sh\necho 'Version: ImageMagick 7.1.1-29 Q16-HDRI x86_64'\necho 'Features: Cipher'\n"
	if err := os.WriteFile(filepath.Join(binDir, "magick"), []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	status := CheckMagick(context.Background(), "")
	if !status.Available {
		t.Fatalf("expected magick to be available, got %#v", status)
	}
	if status.Command != filepath.Join(binDir, "magick") {
		t.Fatalf("unexpected resolved command %q", status.Command)
	}
	if !strings.Contains(status.Detail, "ImageMagick 7.1.1") {
		t.Fatalf("expected version detail, got %q", status.Detail)
	}
}

func TestCheckMagickNotFound(t *testing.T) {
	t.Setenv("PATH", "")
	status := CheckMagick(context.Background(), "magick")
	if status.Available {
		t.Fatal("expected magick resolution to fail")
	}
	if status.Detail == "" {
		t.Fatal("expected detail message when magick is unavailable")
	}
}
