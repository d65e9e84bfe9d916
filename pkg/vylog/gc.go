package vylog

import (
	"os"

	"github.com/bobboyms/vylog/pkg/journal"
)

// CollectGarbage removes log files with signatures strictly less than
// the checkpoint immediately before signature, always keeping that one
// historical file for backup safety.
func (l *Log) CollectGarbage(signature int64) error {
	prev, found := l.directory.Before(signature)
	if !found {
		return nil // nothing older than the requested checkpoint's predecessor
	}

	for _, sig := range l.directory.FilesOlderThan(prev) {
		path := journal.PathForSignature(l.dir, sig)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return newSystemError("unlink", path, err)
		}
		l.directory.Forget(sig)
	}
	return nil
}

// BackupPath returns the path of the checkpoint file immediately before
// vclock's signature — the file containing exactly the records committed
// at that prior checkpoint, with no later additions — or ("", false) if
// no such file exists, which is always the case for the initial
// checkpoint (it has no predecessor).
func (l *Log) BackupPath(vclock Vclock) (string, bool) {
	prev, found := l.directory.Before(vclock.Signature())
	if !found {
		return "", false
	}
	return l.directory.PathFor(prev), true
}
