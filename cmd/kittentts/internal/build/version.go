// Package build holds build-time version information injected via ldflags.
//
// To inject values at build time:
//
//	go build -ldflags "-X github.com/xih/designer-search-sub000/cmd/kittentts/internal/build.Version=v0.3.0 \
//	  -X github.com/xih/designer-search-sub000/cmd/kittentts/internal/build.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/xih/designer-search-sub000/cmd/kittentts/internal/build.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package build

import (
	"fmt"
	"runtime"
)

// These variables are set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info is the version report printed by "kittentts version".
type Info struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
	Go      string `json:"go" yaml:"go"`
	Target  string `json:"target" yaml:"target"`
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		Version: Version,
		Commit:  Commit,
		Date:    Date,
		Go:      runtime.Version(),
		Target:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns a formatted version string.
func String() string {
	i := Get()
	return fmt.Sprintf("kittentts %s (%s) built %s %s", i.Version, i.Commit, i.Date, i.Target)
}
