package errors

import "fmt"

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")
	ErrConfigFileExists  = fmt.Errorf("configuration file already exists")
	ErrUnknownConfigKey  = fmt.Errorf("unknown configuration key")

	// Fixture lifecycle errors.
	ErrAllocation       = fmt.Errorf("failed to allocate directory")
	ErrResourceNotFound = fmt.Errorf("resource not found")
	ErrProcessExecution = fmt.Errorf("process exited with a non-zero status")
	ErrCleanup          = fmt.Errorf("cleanup failed")
	ErrFixtureClosed    = fmt.Errorf("fixture is closed")
	ErrInvalidPath      = fmt.Errorf("invalid path")

	// Download errors.
	ErrDownloadFailed   = fmt.Errorf("download failed")
	ErrChecksumMismatch = fmt.Errorf("checksum mismatch")

	// Manifest errors.
	ErrManifestParse   = fmt.Errorf("failed to parse version manifest")
	ErrManifestMissing = fmt.Errorf("version manifest entry missing")
	ErrInvalidVersion  = fmt.Errorf("invalid version")

	// Artifact XML errors.
	ErrArtifactParse = fmt.Errorf("failed to parse build artifact")

	// Scenario errors.
	ErrScenarioNotFound = fmt.Errorf("scenario not found")
	ErrScenarioInvalid  = fmt.Errorf("invalid scenario")
	ErrExpectation      = fmt.Errorf("expectation not met")

	// Hook errors.
	ErrHookTypeEmpty = fmt.Errorf("hook type cannot be empty")
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
	ErrHookLoad      = fmt.Errorf("failed to load hook")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
