package paths

import (
	"os"
	"path/filepath"
)

const (
	AppDirName      = "supacortex"
	ConfigFileName  = "supacortex-config.json"
	JournalFileName = "activity.db"
	DirPerm         = 0755
	FilePerm        = 0644
)

// DataDir returns the platform-specific data directory for supacortex:
//   - Windows: %APPDATA%\supacortex
//   - Unix:    ~/.config/supacortex
//
// Falls back to os.TempDir()/supacortex if neither is available.
func DataDir() string {
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, AppDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppDirName)
	}
	return filepath.Join(home, ".config", AppDirName)
}

// JournalPath returns the default location of the activity journal database.
func JournalPath() string {
	return filepath.Join(DataDir(), JournalFileName)
}
