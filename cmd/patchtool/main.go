// Package main provides the patchtool CLI: apply unified/context/git-binary
// patches to a working tree, generate a patch from two files or two
// directory trees, and print a diffstat summary for an existing patch
// file.
//
// Modes:
//   - APPLY    : patchtool apply [flags] <patch-file>
//   - GENERATE : patchtool generate [flags] <before> <after>
//   - DIFFSTAT : patchtool diffstat [flags] <patch-file>
//
// Key design goals:
//   - Deterministic output (sorted entries where order is not meaningful)
//   - A fuzzy applier that degrades gracefully (merged-with-warnings,
//     already-applied, conflict-marker) rather than failing outright
//   - Clear, minimal per-subcommand CLI flags with sensible defaults
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	diffgen "patchlib/internal/generate"
	"patchlib/internal/diag"
	"patchlib/internal/diffstat"
	"patchlib/internal/fileapply"
	"patchlib/internal/lines"
	"patchlib/internal/patch"
	"patchlib/internal/sortutil"
	"patchlib/internal/textutil"
	"patchlib/internal/walkutil"
)

// splitCSV converts a comma-separated list into a slice without trimming quotes.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 8)
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			p := s[start:i]
			if p != "" {
				out = append(out, p)
			}
			start = i + 1
		}
	}
	return out
}

func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, v := range list {
		if v != "" {
			m[v] = struct{}{}
		}
	}
	return m
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  %s apply     [flags] <patch-file>\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "  %s generate  [flags] <before> <after>\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "  %s diffstat  [flags] <patch-file>\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "\nRun a subcommand with -h for its flags.")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd := os.Args[1]
	args := os.Args[2:]
	switch cmd {
	case "apply":
		runApply(args)
	case "generate":
		runGenerate(args)
	case "diffstat":
		runDiffstat(args)
	case "-h", "-help", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "ERROR: unknown subcommand %q\n", cmd)
		usage()
		os.Exit(2)
	}
}

// ----- apply -----------------------------------------------------------

func runApply(args []string) {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	dirFlag := fs.String("dir", ".", "directory to apply the patch against")
	stripFlag := fs.Int("strip", -1, "path strip level (-pN); -1 asks the patch to estimate one")
	reverseFlag := fs.Bool("reverse", false, "apply the patch in reverse (undo)")
	emailFlag := fs.Bool("email", false, "patch file is an email (git format-patch / send-email) body")
	quietFlag := fs.Bool("quiet", false, "suppress per-hunk diagnostics")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s apply [flags] <patch-file>\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}

	var p *patch.Patch
	if *emailFlag {
		p, err = patch.ParseEmailText(string(raw), 0)
	} else {
		p, err = patch.ParseText(string(raw), 0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: parsing patch:", err)
		os.Exit(1)
	}

	strip := *stripFlag
	if strip < 0 {
		if guess := p.EstimateStripLevel(); guess >= 0 {
			strip = guess
		} else {
			strip = 0
		}
	}

	sink := diag.Sink(diag.Discard)
	var collector *diag.Collector
	if !*quietFlag {
		collector = &diag.Collector{}
		sink = collector
	}

	driver := fileapply.NewDriver(fileapply.Options{
		Dir:        *dirFlag,
		StripLevel: strip,
		Reverse:    *reverseFlag,
		Sink:       sink,
	})

	results, err := driver.ApplyAll(p)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}

	if collector != nil {
		for _, line := range collector.Lines {
			fmt.Fprintln(os.Stderr, line)
		}
	}

	byPath := make(map[string]fileapply.FileResult, len(results))
	paths := make([]string, 0, len(results))
	worst := 0
	for _, r := range results {
		byPath[r.Path] = r
		paths = append(paths, r.Path)
		if int(r.Ecode) > worst {
			worst = int(r.Ecode)
		}
	}
	for _, path := range sortutil.StablePathSort(paths) {
		r := byPath[path]
		fmt.Printf("%s %s\n", r.Action, r.Path)
	}
	os.Exit(worst)
}

// ----- generate ----------------------------------------------------------

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	contextFlag := fs.Int("context", 4, "number of context lines")
	formatFlag := fs.String("format", "unified", "output format: unified, context, or git")
	maxBytesFlag := fs.Int("max-bytes", 2_000_000, "max combined before+after bytes per file (0 = no limit)")
	recursiveFlag := fs.Bool("recursive", false, "treat <before>/<after> as directory trees and diff every file pair")
	excludeFlag := fs.String("exclude", ".git,node_modules,.DS_Store", "comma-separated dir/file prefixes to exclude (recursive mode)")
	gitignoreFlag := fs.Bool("use-gitignore", true, "honor .gitignore patterns during the tree walk (recursive mode)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s generate [flags] <before> <after>\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(2)
	}
	before, after := fs.Arg(0), fs.Arg(1)

	opt := diffgen.Options{MaxBytes: *maxBytesFlag, Context: *contextFlag}

	if !*recursiveFlag {
		if err := generateOne(os.Stdout, before, after, before, after, opt, *formatFlag); err != nil {
			fmt.Fprintln(os.Stderr, "ERROR:", err)
			os.Exit(1)
		}
		return
	}

	pairs, err := walkutil.DiffTrees(before, after, toSet(splitCSV(*excludeFlag)), int64(*maxBytesFlag), *gitignoreFlag, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
	for _, pair := range pairs {
		if pair.Unchanged() {
			continue
		}
		beforePath := "/dev/null"
		afterPath := "/dev/null"
		var beforeAbs, afterAbs string
		if pair.Before != nil {
			beforePath = "a/" + pair.RelPath
			beforeAbs = pair.Before.AbsPath
		}
		if pair.After != nil {
			afterPath = "b/" + pair.RelPath
			afterAbs = pair.After.AbsPath
		}
		if err := generateOne(os.Stdout, beforeAbs, afterAbs, beforePath, afterPath, opt, *formatFlag); err != nil {
			fmt.Fprintln(os.Stderr, "ERROR:", err)
			os.Exit(1)
		}
	}
}

// generateOne writes the diff for one before/after file pair to w.
// beforeAbs/afterAbs may be empty to mean "file absent on that side".
func generateOne(w io.Writer, beforeAbs, afterAbs, beforeName, afterName string, opt diffgen.Options, format string) error {
	var a, b []byte
	if beforeAbs != "" {
		var err error
		a, err = os.ReadFile(beforeAbs)
		if err != nil {
			return err
		}
	}
	if afterAbs != "" {
		var err error
		b, err = os.ReadFile(afterAbs)
		if err != nil {
			return err
		}
	}

	looksBinary := diffgen.LooksBinary(a) || diffgen.LooksBinary(b)
	if !looksBinary {
		a = textutil.NormalizeUTF8LF(a)
		b = textutil.NormalizeUTF8LF(b)
	}

	if looksBinary || format == "git" {
		gb, err := diffgen.GitBinary(a, b)
		if err != nil {
			return err
		}
		if gb == nil {
			return nil
		}
		fmt.Fprintf(w, "diff --git %s %s\n", beforeName, afterName)
		fmt.Fprint(w, gb.Render().String())
		return nil
	}

	switch format {
	case "context":
		body, _ := diffgen.Context(beforeName, afterName, a, b, opt)
		fmt.Fprint(w, body)
	default:
		if beforeAbs == "" {
			body, _ := diffgen.Added(afterName, b, opt)
			fmt.Fprint(w, body)
			return nil
		}
		body, _ := diffgen.Unified(beforeName, afterName, a, b, opt)
		fmt.Fprint(w, body)
	}
	return nil
}

// ----- diffstat ------------------------------------------------------------

func runDiffstat(args []string) {
	fs := flag.NewFlagSet("diffstat", flag.ExitOnError)
	stripFlag := fs.Int("strip", -1, "path strip level (-pN); -1 asks the patch to estimate one")
	quietFlag := fs.Bool("quiet", false, "print nothing, not even \"0 files changed\", when the patch has no file entries")
	trimFlag := fs.Bool("trim-names", false, "trim a common leading path from every listed file")
	widthFlag := fs.Int("width", 80, "maximum line width for the histogram bars")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s diffstat [flags] <patch-file>\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}

	buf := lines.SplitString(string(raw))
	if diffstat.StartsAt(buf, 0) {
		n, err := diffstat.SummaryLengthAt(buf, 0)
		if err != nil {
			fmt.Fprintln(os.Stderr, "ERROR:", err)
			os.Exit(1)
		}
		fmt.Print(buf.Slice(0, n).String())
		return
	}

	p, err := patch.ParseText(string(raw), 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: parsing patch:", err)
		os.Exit(1)
	}
	strip := *stripFlag
	if strip < 0 {
		if guess := p.EstimateStripLevel(); guess >= 0 {
			strip = guess
		} else {
			strip = 0
		}
	}
	list, err := p.DiffStatList(strip)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
	list.Sort()
	fmt.Print(list.ListFormatString(*quietFlag, false, *trimFlag, *widthFlag))
}
