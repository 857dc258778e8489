// Package buildinfo reports how the running binary was built.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"strings"
)

const shortRevision = 12

var readBuildInfo = debug.ReadBuildInfo

type Info struct {
	Version  string
	Revision string
	Modified bool
	Tags     string
}

// Read collects the module version, VCS stamp and build tags. Missing
// values are left empty; Version defaults to "dev".
func Read() Info {
	out := Info{Version: "dev"}
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return out
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		out.Version = v
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "-tags":
			out.Tags = setting.Value
		case "vcs.revision":
			out.Revision = setting.Value
			if len(out.Revision) > shortRevision {
				out.Revision = out.Revision[:shortRevision]
			}
		case "vcs.modified":
			out.Modified = setting.Value == "true"
		}
	}
	return out
}

// String renders e.g. "v1.2.0 (rev 0a1b2c3d4e5f-dirty, tags: nosyntaxhighlight)".
func (i Info) String() string {
	var extra []string
	if i.Revision != "" {
		rev := "rev " + i.Revision
		if i.Modified {
			rev += "-dirty"
		}
		extra = append(extra, rev)
	}
	if i.Tags != "" {
		extra = append(extra, "tags: "+i.Tags)
	}
	if len(extra) == 0 {
		return i.Version
	}
	return fmt.Sprintf("%s (%s)", i.Version, strings.Join(extra, ", "))
}
