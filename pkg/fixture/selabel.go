package fixture

import (
	"strings"

	"github.com/substrateos/treefix/pkg/object"
)

// Label is a security-label category derived purely from path shape.
type Label int

const (
	LabelRoot Label = iota
	LabelUsr
	LabelUsrLibSystemd
	LabelBoot
	LabelEtc
	LabelEtcSystemConf
)

// LabelForPath classifies a slash-separated relative path. It is total
// and pure: no I/O, no state.
//
// The etc tie-break on string length parity is an arbitrary fixture
// heuristic; tests pin it and it must not be "improved".
func LabelForPath(p string) Label {
	rootdir := firstNormalComponent(p)
	if rootdir == "" {
		return LabelRoot
	}
	switch rootdir {
	case "usr":
		if strings.Contains(p, "systemd") {
			return LabelUsrLibSystemd
		}
		return LabelUsr
	case "boot":
		return LabelBoot
	case "etc":
		if len(p)%2 == 0 {
			return LabelEtc
		}
		return LabelEtcSystemConf
	default:
		return LabelUsr
	}
}

// firstNormalComponent returns the first path component that is a plain
// name, skipping empty, "." and ".." components.
func firstNormalComponent(p string) string {
	for _, part := range strings.Split(p, "/") {
		switch part {
		case "", ".", "..":
			continue
		default:
			return part
		}
	}
	return ""
}

func (l Label) String() string {
	switch l {
	case LabelRoot:
		return "system_u:object_r:root_t:s0"
	case LabelUsr:
		return "system_u:object_r:usr_t:s0"
	case LabelUsrLibSystemd:
		return "system_u:object_r:systemd_unit_file_t:s0"
	case LabelBoot:
		return "system_u:object_r:boot_t:s0"
	case LabelEtc:
		return "system_u:object_r:etc_t:s0"
	case LabelEtcSystemConf:
		return "system_u:object_r:system_conf_t:s0"
	default:
		return "system_u:object_r:unlabeled_t:s0"
	}
}

// Xattrs returns the extended attributes carrying this label.
func (l Label) Xattrs() object.Xattrs {
	return object.Xattrs{object.XattrSELinux: l.String()}
}
