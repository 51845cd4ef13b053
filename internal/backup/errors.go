package backup

import "errors"

// ErrBackupNotFound is returned when a backup id does not resolve to a file.
var ErrBackupNotFound = errors.New("backup not found")

// ErrInvalidBackup is returned when an archive fails validation.
var ErrInvalidBackup = errors.New("invalid backup archive")
