package organizer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"curator/internal/fileutil"
	"curator/internal/logging"
	"curator/internal/services"
)

// execute performs the physical relocation: backup copy first, then the
// destination write via temp-and-rename, then source removal in move mode.
// If any step before the rename fails the source file is left untouched; a
// backup copy may remain, which is harmless.
func (o *Organizer) execute(sourcePath, destPath string, info os.FileInfo) (backupPath string, err error) {
	backupPath, err = o.writeBackup(sourcePath)
	if err != nil {
		return "", services.Wrap(services.ErrPathUnavailable, "organizer", "backup",
			"backup "+sourcePath, err)
	}

	if err := o.writeDestination(sourcePath, destPath, info.Mode().Perm()); err != nil {
		return backupPath, err
	}

	if !o.cfg.Organize.CopyInsteadOfMove {
		if err := os.Remove(sourcePath); err != nil {
			// The destination write succeeded, so the organize itself stands;
			// a lingering source is reported but not rolled back.
			o.logger.Warn("source removal failed",
				logging.String("path", sourcePath), logging.Error(err))
		}
	}
	return backupPath, nil
}

func (o *Organizer) writeBackup(sourcePath string) (string, error) {
	if err := os.MkdirAll(o.cfg.Paths.BackupDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s-%s",
		time.Now().UTC().Format("20060102-150405"),
		uuid.NewString()[:8],
		filepath.Base(sourcePath))
	backupPath := filepath.Join(o.cfg.Paths.BackupDir, name)
	if err := fileutil.CopyFileVerified(sourcePath, backupPath); err != nil {
		return "", err
	}
	return backupPath, nil
}

func (o *Organizer) writeDestination(sourcePath, destPath string, perm os.FileMode) error {
	if _, err := os.Stat(destPath); err == nil && !o.cfg.Organize.OverwriteExisting {
		return services.Wrap(services.ErrValidation, "organizer", "move",
			"destination already exists: "+destPath, nil)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return services.Wrap(services.ErrPathUnavailable, "organizer", "move",
			"create destination directory", err)
	}

	tmp := destPath + ".curator-tmp-" + uuid.NewString()[:8]
	if err := fileutil.CopyFileMode(sourcePath, tmp, perm); err != nil {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrPathUnavailable, "organizer", "move",
			"write destination "+destPath, err)
	}
	if err := os.Rename(tmp, destPath); err != nil {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrPathUnavailable, "organizer", "move",
			"finalize destination "+destPath, err)
	}
	return nil
}
