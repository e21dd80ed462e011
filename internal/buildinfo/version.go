// Package buildinfo derives version strings from Go build metadata.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Version returns the version string for the current build.
//
// Tagged builds (go install from a tag) report the tag. Development
// builds report "dev-<hash>" from vcs.revision, with a "-dirty"
// suffix when the tree had uncommitted changes, or plain "dev" when
// no VCS info was stamped. "unknown" means build info could not be
// read at all.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return devVersion(info)
}

// Commit returns the full vcs.revision of the build, or "" when the
// binary was built without VCS stamping.
func Commit() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	return setting(info, "vcs.revision")
}

// Date returns the vcs.time of the build commit, or "" when unknown.
func Date() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	return setting(info, "vcs.time")
}

func devVersion(info *debug.BuildInfo) string {
	revision := setting(info, "vcs.revision")
	if revision == "" {
		return "dev"
	}

	// Git short hash length
	if len(revision) > 12 {
		revision = revision[:12]
	}

	version := fmt.Sprintf("dev-%s", revision)
	if setting(info, "vcs.modified") == "true" {
		version += "-dirty"
	}

	return version
}

func setting(info *debug.BuildInfo, key string) string {
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}
