// Package version holds the build version string.
package version

// Version is the application version, overridable at build time via
// -ldflags "-X github.com/popforecast/popforecast/internal/version.Version=...".
var Version = "0.6.0"
