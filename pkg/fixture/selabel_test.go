package fixture

import (
	"testing"

	"github.com/substrateos/treefix/pkg/object"
)

func TestLabelForPath(t *testing.T) {
	cases := []struct {
		path string
		want Label
	}{
		{"", LabelRoot},
		{".", LabelRoot},
		{"./", LabelRoot},
		{"usr", LabelUsr},
		{"usr/bin/bash", LabelUsr},
		{"./usr/bin/bash", LabelUsr},
		{"usr/lib/systemd/system/foo.service", LabelUsrLibSystemd},
		{"usr/bin/systemd-analyze", LabelUsrLibSystemd},
		{"boot", LabelBoot},
		{"boot/vmlinuz", LabelBoot},
		{"opt/tool", LabelUsr},
		{"run/somefile", LabelUsr},
	}
	for _, tc := range cases {
		if got := LabelForPath(tc.path); got != tc.want {
			t.Errorf("LabelForPath(%q): got %v, want %v", tc.path, got, tc.want)
		}
	}
}

// The etc classification depends on path length parity. That split is
// part of the fixture's fixed output, so it is pinned here.
func TestLabelForPathEtcParity(t *testing.T) {
	even := "etc/blah" // 8 chars
	odd := "etc/blah2" // 9 chars
	if got := LabelForPath(even); got != LabelEtc {
		t.Errorf("LabelForPath(%q): got %v, want LabelEtc", even, got)
	}
	if got := LabelForPath(odd); got != LabelEtcSystemConf {
		t.Errorf("LabelForPath(%q): got %v, want LabelEtcSystemConf", odd, got)
	}
}

func TestLabelStrings(t *testing.T) {
	cases := []struct {
		label Label
		want  string
	}{
		{LabelRoot, "system_u:object_r:root_t:s0"},
		{LabelUsr, "system_u:object_r:usr_t:s0"},
		{LabelUsrLibSystemd, "system_u:object_r:systemd_unit_file_t:s0"},
		{LabelBoot, "system_u:object_r:boot_t:s0"},
		{LabelEtc, "system_u:object_r:etc_t:s0"},
		{LabelEtcSystemConf, "system_u:object_r:system_conf_t:s0"},
	}
	for _, tc := range cases {
		if got := tc.label.String(); got != tc.want {
			t.Errorf("%v.String(): got %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestLabelXattrs(t *testing.T) {
	x := LabelBoot.Xattrs()
	if x[object.XattrSELinux] != "system_u:object_r:boot_t:s0" {
		t.Errorf("Xattrs: %v", x)
	}
}
