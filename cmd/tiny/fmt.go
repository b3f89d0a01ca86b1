package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const sourceExt = ".tiny"

type fmtMode int

const (
	fmtPrint fmtMode = iota
	fmtWrite
	fmtCheck
)

func fmtCommand(args []string) error {
	mode, targets, err := parseFmtArgs(args)
	if err != nil {
		return err
	}
	paths, err := sourcePaths(targets)
	if err != nil {
		return err
	}

	stale := 0
	for _, path := range paths {
		file, err := readSourceFile(path)
		if err != nil {
			return err
		}
		switch {
		case mode == fmtPrint:
			fmt.Print(file.formatted)
		case !file.changed():
		case mode == fmtWrite:
			if err := file.save(); err != nil {
				return err
			}
		case mode == fmtCheck:
			stale++
			fmt.Println(file.path)
		}
	}

	if stale > 0 {
		return fmt.Errorf("tiny fmt: %d file(s) need formatting", stale)
	}
	return nil
}

func parseFmtArgs(args []string) (fmtMode, []string, error) {
	flags := flag.NewFlagSet("fmt", flag.ContinueOnError)
	flags.SetOutput(new(flagErrorSink))
	write := flags.Bool("w", false, "write result to source files instead of stdout")
	check := flags.Bool("check", false, "list files that need formatting and fail if any do")
	if err := flags.Parse(args); err != nil {
		return fmtPrint, nil, err
	}
	if flags.NArg() == 0 {
		return fmtPrint, nil, errors.New("tiny fmt: path required")
	}

	switch {
	case *write && *check:
		return fmtPrint, nil, errors.New("tiny fmt: -w and -check cannot be combined")
	case *write:
		return fmtWrite, flags.Args(), nil
	case *check:
		return fmtCheck, flags.Args(), nil
	}
	return fmtPrint, flags.Args(), nil
}

// sourceFile is one script read from disk together with its canonical form.
type sourceFile struct {
	path      string
	perm      fs.FileMode
	original  string
	formatted string
}

func readSourceFile(path string) (*sourceFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &sourceFile{
		path:      path,
		perm:      info.Mode().Perm(),
		original:  string(data),
		formatted: formatSource(string(data)),
	}, nil
}

func (f *sourceFile) changed() bool {
	return f.formatted != f.original
}

func (f *sourceFile) save() error {
	if err := os.WriteFile(f.path, []byte(f.formatted), f.perm); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}

// sourcePaths expands targets into sorted, de-duplicated absolute script
// paths. Directories are walked recursively, skipping hidden ones. A file
// named directly must carry the script extension.
func sourcePaths(targets []string) ([]string, error) {
	var paths []string
	for _, target := range targets {
		err := filepath.WalkDir(target, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			isRoot := path == target
			if entry.IsDir() {
				if !isRoot && strings.HasPrefix(entry.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != sourceExt {
				if isRoot {
					return fmt.Errorf("not a %s file", sourceExt)
				}
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			paths = append(paths, abs)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("tiny fmt: %s: %w", target, err)
		}
	}
	slices.Sort(paths)
	return slices.Compact(paths), nil
}

// formatSource rewrites source into the only layout the parser accepts:
// LF line endings, four-space body indentation, no blank lines and no
// trailing whitespace. The file keeps a single final newline.
func formatSource(source string) string {
	normalized := strings.ReplaceAll(source, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "\t") {
			line = "    " + strings.TrimLeft(line, "\t")
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, "\n") + "\n"
}
