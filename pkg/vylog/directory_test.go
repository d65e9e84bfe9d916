package vylog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bobboyms/vylog/pkg/journal"
)

func touchVylogFile(t *testing.T, dir string, sig int64) {
	t.Helper()
	f, err := os.Create(journal.PathForSignature(dir, sig))
	if err != nil {
		t.Fatalf("create %d.vylog: %v", sig, err)
	}
	f.Close()
}

func TestDirectoryScanAndLatest(t *testing.T) {
	dir := t.TempDir()
	touchVylogFile(t, dir, 0)
	touchVylogFile(t, dir, 10)
	touchVylogFile(t, dir, 20)

	d, err := OpenDirectory(dir)
	if err != nil {
		t.Fatalf("OpenDirectory: %v", err)
	}

	latest, ok := d.Latest()
	if !ok || latest != 20 {
		t.Errorf("Latest() = %d/%v, want 20/true", latest, ok)
	}

	before, ok := d.Before(20)
	if !ok || before != 10 {
		t.Errorf("Before(20) = %d/%v, want 10/true", before, ok)
	}

	if _, ok := d.Before(0); ok {
		t.Error("Before(0) should find nothing")
	}

	older := d.FilesOlderThan(20)
	if len(older) != 2 {
		t.Errorf("FilesOlderThan(20) = %v, want 2 entries", older)
	}
}

func TestDirectoryIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	touchVylogFile(t, dir, 5)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "abc.vylog"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d, err := OpenDirectory(dir)
	if err != nil {
		t.Fatalf("OpenDirectory: %v", err)
	}
	sigs := d.Signatures()
	if len(sigs) != 1 || sigs[0] != 5 {
		t.Errorf("Signatures() = %v, want [5]", sigs)
	}
}

func TestDirectoryRecordAndForget(t *testing.T) {
	dir := t.TempDir()
	d, err := OpenDirectory(dir)
	if err != nil {
		t.Fatalf("OpenDirectory: %v", err)
	}
	if !d.IsEmpty() {
		t.Fatal("expected empty directory")
	}

	d.Record(0)
	d.Record(10)
	d.Record(10) // duplicate, no-op

	if got := d.Signatures(); len(got) != 2 {
		t.Errorf("Signatures() = %v, want 2 entries", got)
	}

	d.Forget(0)
	if got := d.Signatures(); len(got) != 1 || got[0] != 10 {
		t.Errorf("Signatures() after Forget(0) = %v, want [10]", got)
	}
}

func TestVclockSignatureIsSumOfComponents(t *testing.T) {
	v := Vclock{3, 5, 12}
	if got, want := v.Signature(), int64(20); got != want {
		t.Errorf("Signature() = %d, want %d", got, want)
	}
}
