package object

// Hash is a hex-encoded content checksum. Its length depends on the
// store's hash algorithm: 64 characters for sha256, 32 for xxh3-128.
type Hash string

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeFile    ObjectType = "file"
	TypeSymlink ObjectType = "symlink"
	TypeDirMeta ObjectType = "dirmeta"
	TypeTree    ObjectType = "dirtree"
	TypeCommit  ObjectType = "commit"
)

// Xattrs maps extended-attribute names to values. Values must not
// contain newlines; the canonical serialization is line-oriented.
type Xattrs map[string]string

// XattrSELinux is the attribute name carrying a security label.
const XattrSELinux = "security.selinux"

// FileObj holds the canonical form of a regular file: ownership,
// permission bits, extended attributes, and content.
type FileObj struct {
	UID     uint32
	GID     uint32
	Mode    uint32 // permission bits, octal
	Xattrs  Xattrs
	Content []byte
}

// SymlinkObj holds the canonical form of a symbolic link. Symlinks carry
// no permission bits of their own.
type SymlinkObj struct {
	UID    uint32
	GID    uint32
	Xattrs Xattrs
	Target string
}

// DirMetaObj holds directory metadata: ownership, permission bits, and
// extended attributes. Directory contents live in a separate TreeObj so
// that identical metadata dedups across the tree.
type DirMetaObj struct {
	UID    uint32
	GID    uint32
	Mode   uint32
	Xattrs Xattrs
}

// TreeEntry is one named child in a tree object. Exactly one of FileHash
// (regular file or symlink) and SubtreeHash (directory) is set.
type TreeEntry struct {
	Name        string
	IsDir       bool
	FileHash    Hash
	SubtreeHash Hash
}

// TreeObj is a directory: its own metadata checksum plus a list of
// entries sorted by name. Because the serialization is canonical, two
// directories with the same metadata and children share one object.
type TreeObj struct {
	MetaHash Hash
	Entries  []TreeEntry // sorted by Name
}

// CommitObj is one point in a linear history: a root tree checksum, a
// caller-supplied timestamp (seconds since the Unix epoch), at most one
// parent, and optional metadata key/values that are part of the commit
// checksum. Detached metadata lives beside the commit, not in it.
type CommitObj struct {
	TreeHash  Hash
	Parent    Hash // empty for the first commit on a ref
	Timestamp int64
	Metadata  map[string]string
	Signature string
}
