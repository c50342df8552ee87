package statepaths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const defaultStateDirName = ".lorekeeper"

// StateDir resolves the root state directory from viper ("state_dir"),
// falling back to ~/.lorekeeper (or ./.lorekeeper when no home is known).
func StateDir() string {
	dir := strings.TrimSpace(viper.GetString("state_dir"))
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil || strings.TrimSpace(home) == "" {
			return defaultStateDirName
		}
		return filepath.Join(home, defaultStateDirName)
	}
	return expandHome(dir)
}

func SessionsDir() string {
	return filepath.Join(StateDir(), "sessions")
}

func LoreDir() string {
	return filepath.Join(StateDir(), "lore")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil && strings.TrimSpace(home) != "" {
			return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
		}
	}
	return path
}
