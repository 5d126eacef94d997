package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vidsub/internal/services"
)

// VideoExtensions lists the container extensions picked up from directories.
var VideoExtensions = []string{".mp4", ".mkv", ".avi", ".mov", ".webm", ".m4v"}

// Input is one file to process. Root is the directory it was discovered
// under, or its own directory when named explicitly. Err is set when the
// argument could not be used; such inputs are reported as failed jobs.
type Input struct {
	Path string
	Root string
	Err  error
}

// IsVideo reports whether path has a recognised video extension.
func IsVideo(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range VideoExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// Discover expands paths into inputs. Directories contribute their video
// files in lexical order, descending into subdirectories when recursive is
// set. Explicit files are accepted regardless of extension. Duplicates are
// removed, keeping the first occurrence.
func Discover(paths []string, recursive bool) ([]Input, error) {
	if len(paths) == 0 {
		return nil, services.Wrap(services.ErrInput, "discovery", "", "no input paths given", nil)
	}
	seen := make(map[string]struct{})
	var inputs []Input
	add := func(in Input) {
		if _, ok := seen[in.Path]; ok {
			return
		}
		seen[in.Path] = struct{}{}
		inputs = append(inputs, in)
	}

	for _, raw := range paths {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		abs, err := filepath.Abs(raw)
		if err != nil {
			add(Input{Path: raw, Err: services.Wrap(services.ErrInput, "discovery", "resolve path", raw, err)})
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			add(Input{Path: abs, Root: filepath.Dir(abs), Err: services.Wrap(services.ErrInput, "discovery", "stat", abs, err)})
			continue
		}
		if !info.IsDir() {
			add(Input{Path: abs, Root: filepath.Dir(abs)})
			continue
		}
		files, err := scanDir(abs, recursive)
		if err != nil {
			add(Input{Path: abs, Root: abs, Err: services.Wrap(services.ErrInput, "discovery", "scan", abs, err)})
			continue
		}
		for _, file := range files {
			add(Input{Path: file, Root: abs})
		}
	}
	return inputs, nil
}

func scanDir(root string, recursive bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable subtrees are skipped rather than failing the batch.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && (!recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && IsVideo(path) && !strings.HasPrefix(d.Name(), ".") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// OutputPath maps an input to its subtitle path: next to the input when
// outDir is empty, otherwise under outDir mirroring the input's location
// relative to its discovery root.
func OutputPath(in Input, outDir, ext string) string {
	stem := strings.TrimSuffix(filepath.Base(in.Path), filepath.Ext(in.Path))
	name := stem + "." + strings.TrimPrefix(ext, ".")
	if strings.TrimSpace(outDir) == "" {
		return filepath.Join(filepath.Dir(in.Path), name)
	}
	rel := "."
	if in.Root != "" {
		if r, err := filepath.Rel(in.Root, filepath.Dir(in.Path)); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	return filepath.Join(outDir, rel, name)
}

// outputCollision builds the error reported for a job whose output path was
// already claimed by an earlier input.
func outputCollision(output, owner string) error {
	return services.Wrap(services.ErrInput, "planning", "output path", fmt.Sprintf("%s is also the output of %s", output, owner), nil)
}

var errNotDispatched = errors.New("batch cancelled before job started")
