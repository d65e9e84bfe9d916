package vylog

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/bobboyms/vylog/pkg/journal"
)

// Directory scans a metadata-log directory for "<signature>.vylog" files
// and keeps the sorted set of signatures currently on disk, the basis for
// both recovery (locate the newest file) and garbage collection (locate
// everything older than a watermark).
type Directory struct {
	dir         string
	signatures  []int64 // kept sorted ascending
}

func OpenDirectory(dir string) (*Directory, error) {
	d := &Directory{dir: dir}
	if err := d.rescan(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Directory) rescan() error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return err
	}

	var sigs []int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".vylog") {
			continue
		}
		sigStr := strings.TrimSuffix(name, ".vylog")
		sig, err := strconv.ParseInt(sigStr, 10, 64)
		if err != nil {
			continue // not one of ours, ignore
		}
		sigs = append(sigs, sig)
	}
	sort.Slice(sigs, func(i, j int) bool { return sigs[i] < sigs[j] })
	d.signatures = sigs
	return nil
}

// Signatures returns every known signature, ascending.
func (d *Directory) Signatures() []int64 {
	out := make([]int64, len(d.signatures))
	copy(out, d.signatures)
	return out
}

// Latest returns the greatest known signature, or (0, false) if the
// directory has no log files at all.
func (d *Directory) Latest() (int64, bool) {
	if len(d.signatures) == 0 {
		return 0, false
	}
	return d.signatures[len(d.signatures)-1], true
}

// Before returns the greatest signature strictly less than sig, or
// (0, false) if none exists.
func (d *Directory) Before(sig int64) (int64, bool) {
	best, found := int64(0), false
	for _, s := range d.signatures {
		if s < sig && (!found || s > best) {
			best, found = s, true
		}
	}
	return best, found
}

// FilesOlderThan returns every known signature strictly less than
// watermark.
func (d *Directory) FilesOlderThan(watermark int64) []int64 {
	var out []int64
	for _, s := range d.signatures {
		if s < watermark {
			out = append(out, s)
		}
	}
	return out
}

// Record registers a newly-created signature without rescanning the
// filesystem (used by the rotator right after a successful rename).
func (d *Directory) Record(sig int64) {
	for _, s := range d.signatures {
		if s == sig {
			return
		}
	}
	d.signatures = append(d.signatures, sig)
	sort.Slice(d.signatures, func(i, j int) bool { return d.signatures[i] < d.signatures[j] })
}

// Forget removes a signature from the in-memory index after its file has
// been deleted by garbage collection.
func (d *Directory) Forget(sig int64) {
	for i, s := range d.signatures {
		if s == sig {
			d.signatures = append(d.signatures[:i], d.signatures[i+1:]...)
			return
		}
	}
}

func (d *Directory) PathFor(sig int64) string {
	return journal.PathForSignature(d.dir, sig)
}

func (d *Directory) IsEmpty() bool {
	return len(d.signatures) == 0
}
