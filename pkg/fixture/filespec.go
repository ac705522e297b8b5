package fixture

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// File definitions are a line-oriented mini-language:
//
//	# comment
//	m [UID GID MODE]        set defaults for following lines; bare "m" resets
//	r PATH CONTENT          regular file
//	l PATH TARGET           symlink
//	d PATH                  directory
//
// Fields are split on single spaces; paths and contents containing
// spaces are unsupported.

var (
	ErrMalformedDirective = errors.New("malformed mode directive")
	ErrMissingContent     = errors.New("missing file contents")
	ErrMissingTarget      = errors.New("missing symlink target")
	ErrUnknownType        = errors.New("unknown file type")
	ErrMalformedLine      = errors.New("malformed file definition")
)

// Canonical defaults: root-owned, mode 0644.
const (
	DefaultUID  uint32 = 0
	DefaultGID  uint32 = 0
	DefaultMode uint32 = 0o644
)

// FileKind is the closed set of file definition kinds.
type FileKind int

const (
	KindRegular FileKind = iota
	KindSymlink
	KindDirectory
)

// FileDef is one parsed file definition, carrying the owner/group/mode
// defaults that were current when its line was read.
type FileDef struct {
	UID  uint32
	GID  uint32
	Mode uint32
	Path string
	Kind FileKind

	Content string // KindRegular
	Target  string // KindSymlink
}

// PathComponents splits the slash-separated path.
func (d *FileDef) PathComponents() []string {
	return strings.Split(d.Path, "/")
}

// FileName returns the final path component.
func (d *FileDef) FileName() string {
	parts := d.PathComponents()
	return parts[len(parts)-1]
}

// ParseDefs lazily parses newline-separated file definitions. Directive
// lines mutate the running defaults and emit nothing; every emitted
// FileDef carries the defaults in force when its line was read. A parse
// error is yielded in place of the failed line's record and the stream
// continues, so the consumer decides whether to fail fast. Parsing
// never touches storage.
func ParseDefs(text string) iter.Seq2[*FileDef, error] {
	return func(yield func(*FileDef, error) bool) {
		uid, gid, mode := DefaultUID, DefaultGID, DefaultMode
		for line := range strings.SplitSeq(text, "\n") {
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if line == "m" || strings.HasPrefix(line, "m ") {
				u, g, m, err := parseModeDirective(line)
				if err != nil {
					if !yield(nil, err) {
						return
					}
					continue
				}
				uid, gid, mode = u, g, m
				continue
			}
			def, err := parseFileDef(line)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			def.UID = uid
			def.GID = gid
			def.Mode = mode
			if !yield(def, nil) {
				return
			}
		}
	}
}

// parseModeDirective parses "m [UID GID MODE]". No arguments resets to
// the canonical defaults; exactly three sets them; anything else is an
// error.
func parseModeDirective(line string) (uint32, uint32, uint32, error) {
	args := strings.Split(line, " ")[1:]
	switch len(args) {
	case 0:
		return DefaultUID, DefaultGID, DefaultMode, nil
	case 3:
		uid, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%w: bad uid in %q: %v", ErrMalformedDirective, line, err)
		}
		gid, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%w: bad gid in %q: %v", ErrMalformedDirective, line, err)
		}
		mode, err := strconv.ParseUint(args[2], 8, 32)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%w: bad mode in %q: %v", ErrMalformedDirective, line, err)
		}
		return uint32(uid), uint32(gid), uint32(mode), nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedDirective, line)
	}
}

func parseFileDef(line string) (*FileDef, error) {
	parts := strings.Split(line, " ")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: missing file name: %q", ErrMalformedLine, line)
	}
	if len(parts) > 3 {
		return nil, fmt.Errorf("%w: trailing fields: %q", ErrMalformedLine, line)
	}
	tag, path := parts[0], parts[1]

	def := &FileDef{Path: path}
	switch tag {
	case "r":
		if len(parts) < 3 {
			return nil, fmt.Errorf("%w: %q", ErrMissingContent, line)
		}
		def.Kind = KindRegular
		def.Content = parts[2]
	case "l":
		if len(parts) < 3 {
			return nil, fmt.Errorf("%w: %q", ErrMissingTarget, line)
		}
		def.Kind = KindSymlink
		def.Target = parts[2]
	case "d":
		if len(parts) > 2 {
			return nil, fmt.Errorf("%w: trailing fields: %q", ErrMalformedLine, line)
		}
		def.Kind = KindDirectory
	default:
		return nil, fmt.Errorf("%w %q: %q", ErrUnknownType, tag, line)
	}
	return def, nil
}
