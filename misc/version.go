// Package misc holds program identity, values are set at link time.
package misc

import "runtime/debug"

var (
	appName = "twc"
	version = "dev"
	gitHash string
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

// GetGitHash returns commit the binary was built from, either set with
// -ldflags or taken from build information.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
