// Package model holds the shared data types that flow through the migration
// pipeline: photo identity, face rectangles, source/target inventories, raw
// matches, and the derived operation buckets.
package model

import (
	"fmt"
	"strings"
	"time"
)

// PhotoKey is a stable identity for a photo shared by both stores.
// Equality implies the two sides refer to the same underlying image bytes
// with high probability. Basename comparison is case-insensitive to be
// resilient to case-insensitive filesystems; Size/ModTime/Checksum act as
// stabilizers when available.
type PhotoKey struct {
	Basename string
	Size     int64     // 0 if unknown
	ModTime  time.Time // zero if unknown
	Checksum string    // empty if unknown
}

// NewPhotoKey normalizes the basename (lowercased, for case-insensitive
// filesystems) and keeps whichever stabilizers the caller has available.
func NewPhotoKey(basename string, size int64, modTime time.Time, checksum string) PhotoKey {
	return PhotoKey{
		Basename: strings.ToLower(strings.TrimSpace(basename)),
		Size:     size,
		ModTime:  modTime.UTC().Truncate(time.Second),
		Checksum: strings.ToLower(strings.TrimSpace(checksum)),
	}
}

// String renders a deterministic string form suitable for use as a map key
// and for stable sort ordering.
func (k PhotoKey) String() string {
	if k.Checksum != "" {
		return fmt.Sprintf("%s#%s", k.Basename, k.Checksum)
	}
	if k.Size > 0 {
		return fmt.Sprintf("%s#%d#%d", k.Basename, k.Size, k.ModTime.Unix())
	}
	return k.Basename
}
