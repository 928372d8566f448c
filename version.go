// Package opportunityscorer provides version information for the
// opportunity-scorer module.
//
// The scoring pipeline itself lives in the inventory, ledger, scorer, results
// and pipeline packages; the command line tool is cmd/opportunity-scorer.
package opportunityscorer

// Version represents the current semantic version of opportunity-scorer.
//
// Pre-1.0: the result document layout and CLI flags may change between minor
// versions.
const Version = "0.3.0"

// Name is the canonical module name used in logs and version output
const Name = "opportunity-scorer"

// VersionInfo encapsulates version metadata for the module.
//
// Fields:
//   - Version: Semantic version string (e.g., "0.3.0")
//   - Name: Human-readable name for identification
//   - Commit: VCS revision stamped at build time, empty when unknown
type VersionInfo struct {
	Version string
	Name    string
	Commit  string
}

// GetVersion returns structured version information. commit is the build's
// VCS revision and may be empty.
//
// Usage:
//
//	info := GetVersion(commit)
//	slog.Info("Starting", "name", info.Name, "version", info.Version)
func GetVersion(commit string) VersionInfo {
	return VersionInfo{
		Version: Version,
		Name:    Name,
		Commit:  commit,
	}
}

// String formats the info as "name version (commit)"
func (v VersionInfo) String() string {
	if v.Commit == "" {
		return v.Name + " " + v.Version
	}
	return v.Name + " " + v.Version + " (" + v.Commit + ")"
}
