package fsutil

// File and directory permission constants used for everything the harness
// writes into a scaffolded repository or its own state directories.
const (
	// Default file modes.
	FileModeDefault = 0o644 // -rw-r--r--: Default for regular files
	FileModeSecure  = 0o640 // -rw-r-----: For config files
	FileModeExec    = 0o755 // -rwxr-xr-x: For build scripts

	// Directory modes.
	DirModeDefault = 0o755 // drwxr-xr-x: Default for directories
	DirModeSecure  = 0o750 // drwxr-x---: For config directories
)
