// Package layout computes the on-disk paths: one directory per user
// holding the metadata database, the vector-index snapshot, and a nested
// files tree for uploaded bytes. Both internal/ingest and internal/space
// need these paths (ingestion writes files, space deletion removes them),
// so they live here instead of being duplicated or forcing one package to
// import the other for a path string.
package layout

import "path/filepath"

// UserDir is the root directory for everything belonging to one user.
func UserDir(dataRoot, userID string) string {
	return filepath.Join(dataRoot, userID)
}

// MetadataPath is the badgerhold database path for a user.
func MetadataPath(dataRoot, userID string) string {
	return filepath.Join(UserDir(dataRoot, userID), "metadata.db")
}

// VectorIndexPath is the vector-index snapshot path for a user.
func VectorIndexPath(dataRoot, userID string) string {
	return filepath.Join(UserDir(dataRoot, userID), "vectorindex.snap")
}

// SpaceFilesDir is the directory holding every uploaded file that belongs
// to one space.
func SpaceFilesDir(dataRoot, userID, spaceID string) string {
	return filepath.Join(UserDir(dataRoot, userID), "files", spaceID)
}

// ItemFilePath is the canonical byte storage location for one file item.
func ItemFilePath(dataRoot, userID, spaceID, itemID, ext string) string {
	return filepath.Join(SpaceFilesDir(dataRoot, userID, spaceID), itemID+ext)
}
