// Package version carries build metadata set via -ldflags, falling back
// to the VCS stamp the go toolchain embeds.
package version

import (
	"fmt"
	"runtime/debug"
)

const AppName = "zuga-web"

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate string
	BuildId   string
	VCSDirty  *bool
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date,omitempty"`
	BuildId   string `json:"build_id,omitempty"`
	GoVersion string `json:"go_version"`
	VCSDirty  *bool  `json:"vcs_dirty,omitempty"`
}

func (i Info) String() string {
	s := fmt.Sprintf("%s %s (commit %s, %s)", AppName, i.Version, i.Commit, i.GoVersion)
	if i.VCSDirty != nil && *i.VCSDirty {
		s += " dirty"
	}
	return s
}

func Get() Info {
	out := Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		BuildId:   BuildId,
		VCSDirty:  VCSDirty,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	out.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if out.Commit == "none" && s.Value != "" {
				out.Commit = s.Value
			}
		case "vcs.time":
			if out.BuildDate == "" {
				out.BuildDate = s.Value
			}
		case "vcs.modified":
			if out.VCSDirty == nil && (s.Value == "true" || s.Value == "false") {
				dirty := s.Value == "true"
				out.VCSDirty = &dirty
			}
		}
	}
	return out
}
