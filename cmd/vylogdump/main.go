// Command vylogdump inspects a metadata-log directory from the outside:
// listing known checkpoints, replaying one file into a human-readable
// record stream, and running garbage collection against a watermark.
// It is a debugging tool, not part of the library's public API.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bobboyms/vylog/pkg/journal"
	"github.com/bobboyms/vylog/pkg/record"
	"github.com/bobboyms/vylog/pkg/vylog"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "ls":
		err = runLs(os.Args[2:])
	case "replay":
		err = runReplay(os.Args[2:])
	case "gc":
		err = runGC(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "vylogdump:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  vylogdump ls <dir>
  vylogdump replay [--only-checkpoint] <dir> <signature>
  vylogdump gc <dir> <signature>`)
}

func runLs(args []string) error {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("ls requires exactly one argument: <dir>")
	}
	dir := fs.Arg(0)

	d, err := vylog.OpenDirectory(dir)
	if err != nil {
		return fmt.Errorf("open directory: %w", err)
	}

	for _, sig := range d.Signatures() {
		path := d.PathFor(sig)
		info, err := os.Stat(path)
		size := int64(-1)
		if err == nil {
			size = info.Size()
		}
		fmt.Printf("%d\t%s\t%d bytes\n", sig, path, size)
	}
	return nil
}

func runReplay(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	onlyCheckpoint := fs.Bool("only-checkpoint", false, "stop replay at the first snapshot row")
	fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("replay requires two arguments: <dir> <signature>")
	}
	dir := fs.Arg(0)
	sig, err := parseSignature(fs.Arg(1))
	if err != nil {
		return err
	}

	path := journal.PathForSignature(dir, sig)
	g, err := vylog.ReplayFile(path, journal.DefaultOptions(), *onlyCheckpoint)
	if err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}

	return g.Iterate(func(rec record.Record) error {
		fmt.Println(rec.Dump())
		return nil
	})
}

func runGC(args []string) error {
	fs := flag.NewFlagSet("gc", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("gc requires two arguments: <dir> <signature>")
	}
	dir := fs.Arg(0)
	sig, err := parseSignature(fs.Arg(1))
	if err != nil {
		return err
	}

	l, err := vylog.Open(dir, vylog.Options{Journal: journal.DefaultOptions()})
	if err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	defer l.Close()

	before := l.Signatures()
	if err := l.CollectGarbage(sig); err != nil {
		return fmt.Errorf("collect garbage up to %d: %w", sig, err)
	}
	after := l.Signatures()

	afterSet := make(map[int64]bool, len(after))
	for _, s := range after {
		afterSet[s] = true
	}
	removed := 0
	for _, s := range before {
		if !afterSet[s] {
			fmt.Printf("removed %s\n", journal.PathForSignature(dir, s))
			removed++
		}
	}
	if removed == 0 {
		fmt.Println("nothing to remove")
	}
	return nil
}

func parseSignature(s string) (int64, error) {
	var sig int64
	_, err := fmt.Sscanf(s, "%d", &sig)
	if err != nil {
		return 0, fmt.Errorf("invalid signature %q: %w", s, err)
	}
	return sig, nil
}
