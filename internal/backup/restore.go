package backup

import (
	"fmt"
	"os"
	"path/filepath"
)

// Restore verifies snapshotDir, then atomically replaces destStateDBPath
// and destOwnerCardPath with the sealed copies. Unless force is set, it
// refuses to overwrite either destination that already exists.
func Restore(snapshotDir, destStateDBPath, destOwnerCardPath string, force bool) (Manifest, error) {
	manifest, err := Verify(snapshotDir)
	if err != nil {
		return Manifest{}, fmt.Errorf("restore aborted, snapshot failed verification: %w", err)
	}

	if !force {
		for _, dest := range []string{destStateDBPath, destOwnerCardPath} {
			if _, err := os.Stat(dest); err == nil {
				return Manifest{}, fmt.Errorf("refusing to overwrite existing file %s without --force", dest)
			}
		}
	}

	if err := atomicReplace(filepath.Join(snapshotDir, manifest.StateDBFile), destStateDBPath); err != nil {
		return Manifest{}, fmt.Errorf("failed to restore state db: %w", err)
	}
	if err := atomicReplace(filepath.Join(snapshotDir, manifest.OwnerCardFile), destOwnerCardPath); err != nil {
		return Manifest{}, fmt.Errorf("failed to restore owner card: %w", err)
	}

	return manifest, nil
}

// atomicReplace copies src into a temp file beside dst, then renames it
// over dst — rename is atomic on the same filesystem, so a crash mid-copy
// never leaves dst partially written.
func atomicReplace(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create parent dir for %s: %w", dst, err)
	}

	tmp := dst + ".restoring"
	if err := copyFileVerbatim(src, tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename %s to %s: %w", tmp, dst, err)
	}
	return nil
}
