package core

// Version is injected at build time:
//
//	go build -ldflags "-X colorizer_backend/core.Version=$(git describe --tags --always)" .
//
// Without injection it reads "dev".
var Version = "dev"

// BuildTime is injected at build time:
//
//	go build -ldflags "-X colorizer_backend/core.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" .
var BuildTime = "unknown"

// GitCommit is injected at build time:
//
//	go build -ldflags "-X colorizer_backend/core.GitCommit=$(git rev-parse --short HEAD)" .
var GitCommit = "unknown"

// GetVersion returns the compile-time injected version.
func GetVersion() string {
	return Version
}

// GetBuildTime returns the compile-time injected build timestamp.
func GetBuildTime() string {
	return BuildTime
}

// GetGitCommit returns the compile-time injected commit hash.
func GetGitCommit() string {
	return GitCommit
}

// GetVersionInfo formats the version line shown by the version command,
// e.g. "v0.3.0 (built 2026-02-11T09:15:00Z, commit a1b2c3d)".
func GetVersionInfo() string {
	return Version + " (built " + BuildTime + ", commit " + GitCommit + ")"
}

// BuildLdflags assembles the ldflags string build scripts pass to go build.
// Empty arguments are skipped; all empty yields "".
func BuildLdflags(version, buildTime, gitCommit string) string {
	var flags string
	if version != "" {
		flags += "-X colorizer_backend/core.Version=" + version
	}
	if buildTime != "" {
		if flags != "" {
			flags += " "
		}
		flags += "-X colorizer_backend/core.BuildTime=" + buildTime
	}
	if gitCommit != "" {
		if flags != "" {
			flags += " "
		}
		flags += "-X colorizer_backend/core.GitCommit=" + gitCommit
	}
	return flags
}
