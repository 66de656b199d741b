package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	stateDBFilename   = "state.db"
	ownerCardFilename = "owner_card.json"
	manifestFilename  = "manifest.json"
)

// Snapshotter is the subset of *store.Store the backup step needs — an
// online, transactionally-consistent copy operation.
type Snapshotter interface {
	VacuumInto(destPath string) error
}

// Run creates outputDir/<YYYYMMDDTHHMMSSZ>/, snapshots the state DB via
// VacuumInto, copies the owner card verbatim, checksums both, and writes
// the sealing manifest. Returns the snapshot directory.
func Run(store Snapshotter, ownerCardPath, outputDir string, now time.Time) (string, error) {
	snapshotDir := filepath.Join(outputDir, now.UTC().Format("20060102T150405Z"))
	if err := os.MkdirAll(snapshotDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot dir %s: %w", snapshotDir, err)
	}

	dbDest := filepath.Join(snapshotDir, stateDBFilename)
	if err := store.VacuumInto(dbDest); err != nil {
		return "", fmt.Errorf("failed to snapshot state db: %w", err)
	}

	cardDest := filepath.Join(snapshotDir, ownerCardFilename)
	if err := copyFileVerbatim(ownerCardPath, cardDest); err != nil {
		return "", fmt.Errorf("failed to copy owner card: %w", err)
	}

	dbSum, err := sha256File(dbDest)
	if err != nil {
		return "", err
	}
	cardSum, err := sha256File(cardDest)
	if err != nil {
		return "", err
	}

	manifest := Manifest{
		SchemaVersion:   manifestSchemaVersion,
		CreatedAt:       now.UTC(),
		StateDBFile:     stateDBFilename,
		StateDBSHA256:   dbSum,
		OwnerCardFile:   ownerCardFilename,
		OwnerCardSHA256: cardSum,
	}
	if err := writeManifest(filepath.Join(snapshotDir, manifestFilename), manifest); err != nil {
		return "", err
	}

	return snapshotDir, nil
}

func copyFileVerbatim(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
