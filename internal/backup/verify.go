package backup

import (
	"fmt"
	"path/filepath"
)

// Verify reads snapshotDir's manifest, requires schema_version == 1, and
// recomputes SHA-256 over both sealed files, comparing against the
// manifest's recorded sums.
func Verify(snapshotDir string) (Manifest, error) {
	manifest, err := readManifest(filepath.Join(snapshotDir, manifestFilename))
	if err != nil {
		return Manifest{}, err
	}
	if manifest.SchemaVersion != manifestSchemaVersion {
		return Manifest{}, fmt.Errorf("unsupported manifest schema_version %d", manifest.SchemaVersion)
	}

	dbSum, err := sha256File(filepath.Join(snapshotDir, manifest.StateDBFile))
	if err != nil {
		return Manifest{}, err
	}
	if dbSum != manifest.StateDBSHA256 {
		return Manifest{}, fmt.Errorf("state db checksum mismatch: manifest has %s, file has %s", manifest.StateDBSHA256, dbSum)
	}

	cardSum, err := sha256File(filepath.Join(snapshotDir, manifest.OwnerCardFile))
	if err != nil {
		return Manifest{}, err
	}
	if cardSum != manifest.OwnerCardSHA256 {
		return Manifest{}, fmt.Errorf("owner card checksum mismatch: manifest has %s, file has %s", manifest.OwnerCardSHA256, cardSum)
	}

	return manifest, nil
}
