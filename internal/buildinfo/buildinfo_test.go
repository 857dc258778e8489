package buildinfo

import (
	"runtime/debug"
	"testing"
)

func TestRead(t *testing.T) {
	orig := readBuildInfo
	t.Cleanup(func() { readBuildInfo = orig })

	tests := []struct {
		name string
		info *debug.BuildInfo
		want string
	}{
		{name: "unavailable", want: "dev"},
		{name: "devel", info: &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, want: "dev"},
		{name: "release", info: &debug.BuildInfo{Main: debug.Module{Version: "v1.2.0"}}, want: "v1.2.0"},
		{
			name: "vcs_stamp",
			info: &debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0a1b2c3d4e5f6a7b8c9d"},
					{Key: "vcs.modified", Value: "true"},
					{Key: "-tags", Value: "nosyntaxhighlight"},
				},
			},
			want: "dev (rev 0a1b2c3d4e5f-dirty, tags: nosyntaxhighlight)",
		},
		{
			name: "clean_tree",
			info: &debug.BuildInfo{
				Main:     debug.Module{Version: "v1.2.0"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}, {Key: "vcs.modified", Value: "false"}},
			},
			want: "v1.2.0 (rev abc)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readBuildInfo = func() (*debug.BuildInfo, bool) { return tt.info, tt.info != nil }
			if got := Read().String(); got != tt.want {
				t.Fatalf("Read().String() = %q, want %q", got, tt.want)
			}
		})
	}
}
