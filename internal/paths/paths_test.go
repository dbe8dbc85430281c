package paths

import (
	"path/filepath"
	"testing"
)

func TestDataDirUsesAPPDATA(t *testing.T) {
	t.Setenv("APPDATA", "/fake/appdata")
	got := DataDir()
	want := filepath.Join("/fake/appdata", AppDirName)
	if got != want {
		t.Errorf("DataDir() = %q, want %q", got, want)
	}
}

func TestDataDirFallsBackWithoutAPPDATA(t *testing.T) {
	t.Setenv("APPDATA", "")
	got := DataDir()

	// Either ~/.config/supacortex or the temp dir, both end in the app dir.
	if filepath.Base(got) != AppDirName {
		t.Errorf("DataDir() = %q, expected base dir %q", got, AppDirName)
	}
}

func TestJournalPath(t *testing.T) {
	t.Setenv("APPDATA", "/fake/appdata")
	got := JournalPath()
	want := filepath.Join("/fake/appdata", AppDirName, JournalFileName)
	if got != want {
		t.Errorf("JournalPath() = %q, want %q", got, want)
	}
}
