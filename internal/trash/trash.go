package trash

// Gateway moves paths into a trash location and back. Implementations
// never overwrite an existing destination.
type Gateway interface {
	// Trash moves path into the trash and returns where it now lives.
	// When the item was copied but leftovers remain at path, both the
	// trash path and an error matching fs.ErrSourceNotRemoved are returned.
	Trash(path string) (trashPath string, err error)

	// Restore moves trashPath back to originalPath.
	Restore(trashPath, originalPath string) error
}

// Reverter is implemented by gateways that can undo a Restore, putting
// originalPath back at exactly trashPath with any bookkeeping it had.
type Reverter interface {
	Revert(trashPath, originalPath string) error
}

// Storage is a Gateway that owns one or more trash roots.
type Storage interface {
	Gateway

	// Owns reports whether trashPath lives in one of this storage's roots.
	Owns(trashPath string) bool

	// Info returns detailed information about the storage
	Info() *StorageInfo
}

// StorageLocation represents where the trash storage is located
type StorageLocation int

const (
	LocationHome StorageLocation = iota
	LocationExternal
)

// StorageInfo provides information about a trash storage
type StorageInfo struct {
	// Location indicates whether this is a home or external storage
	Location StorageLocation

	// Root is the root directory of this storage (e.g., ~/.local/share/Trash)
	Root string

	// Available indicates whether this storage is currently available
	Available bool

	Type StorageType
}

// StorageType represents the type of trash storage
type StorageType int

const (
	// StorageTypeXDG is the freedesktop.org trash (files/ + info/)
	StorageTypeXDG StorageType = iota

	// StorageTypeDir is a plain directory such as ~/.Trash on macOS
	StorageTypeDir

	// StorageTypePrivileged moves files with elevated rights
	StorageTypePrivileged
)

func (t StorageType) String() string {
	switch t {
	case StorageTypeXDG:
		return "xdg"
	case StorageTypeDir:
		return "dir"
	case StorageTypePrivileged:
		return "privileged"
	}
	return "unknown"
}
