package workspace

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.pedeai.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pedeai")
}

// Dir returns the workspace directory for a restaurant slug.
func Dir(slug string) string {
	return filepath.Join(BaseDir(), "restaurants", slug)
}

// SocketPath returns the UDS socket path the daemon API listens on.
func SocketPath(slug string) string {
	return filepath.Join(Dir(slug), "daemon.sock")
}

// DBPath returns the default sqlite database path.
func DBPath(slug string) string {
	return filepath.Join(Dir(slug), "pedeai.db")
}

// SpoolDir returns the receipt spool directory.
func SpoolDir(slug string) string {
	return filepath.Join(Dir(slug), "spool")
}

// LogDir returns the log directory for a workspace.
func LogDir(slug string) string {
	return filepath.Join(Dir(slug), "logs")
}

// LogPath returns the daemon log file path.
func LogPath(slug string) string {
	return filepath.Join(LogDir(slug), "pedeaid.log")
}

// ConfigPath returns the workspace config file path.
func ConfigPath(slug string) string {
	return filepath.Join(Dir(slug), "config.toml")
}

// DefaultPath returns the global file naming the default restaurant slug.
func DefaultPath() string {
	return filepath.Join(BaseDir(), "default.toml")
}

// EnsureDir creates the workspace directory tree with proper permissions.
func EnsureDir(slug string) error {
	dirs := []string{
		Dir(slug),
		LogDir(slug),
		SpoolDir(slug),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
