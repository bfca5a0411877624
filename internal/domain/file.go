package domain

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileRole classifies a file by its purpose in the library.
type FileRole string

const (
	FileRoleVideo    FileRole = "video"
	FileRoleSubtitle FileRole = "subtitle"
	FileRoleImage    FileRole = "image"
	FileRoleOther    FileRole = "other"
)

// FileOrigin records how a file entered the library.
type FileOrigin string

const (
	FileOriginScan   FileOrigin = "scan"
	FileOriginImport FileOrigin = "import"
	FileOriginManual FileOrigin = "manual"
)

// File references a physical file on disk. Files are observed, never owned;
// the pipeline reads and links them but never deletes or rewrites them.
type File struct {
	ID         uuid.UUID
	Path       string
	Role       FileRole
	Size       int64
	Hash       string
	ModifiedAt time.Time
	Origin     FileOrigin
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewFile constructs a validated File record for an observed path.
func NewFile(path string, role FileRole, size int64, modifiedAt time.Time, origin FileOrigin) (*File, error) {
	now := time.Now().UTC()
	file := &File{
		ID:         uuid.New(),
		Path:       path,
		Role:       role,
		Size:       size,
		ModifiedAt: modifiedAt,
		Origin:     origin,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return file, nil
}

// Validate checks the entity's invariants.
func (f *File) Validate() error {
	if strings.TrimSpace(f.Path) == "" {
		return invariantf("file path cannot be empty")
	}
	if !filepath.IsAbs(f.Path) {
		return invariantf("file path must be absolute, got %q", f.Path)
	}
	if f.Size < 0 {
		return invariantf("file size cannot be negative, got %d", f.Size)
	}
	switch f.Role {
	case FileRoleVideo, FileRoleSubtitle, FileRoleImage, FileRoleOther:
	default:
		return invariantf("unknown file role %q", f.Role)
	}
	return nil
}

// UpdateObserved refreshes size and modification time after the file changed
// on disk. The stored hash is invalidated because it no longer describes the
// current contents.
func (f *File) UpdateObserved(size int64, modifiedAt time.Time) {
	f.Size = size
	f.ModifiedAt = modifiedAt
	f.Hash = ""
	f.UpdatedAt = time.Now().UTC()
}

// Changed reports whether the on-disk metadata differs from the record.
func (f *File) Changed(size int64, modifiedAt time.Time) bool {
	return f.Size != size || !f.ModifiedAt.Equal(modifiedAt)
}
