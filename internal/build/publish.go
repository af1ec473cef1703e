package build

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/logfields"
)

// publishDir resolves the output directory and rejects one that would
// replace the site sources.
func publishDir(siteDir, outputDir string) (string, error) {
	dir, err := filepath.Abs(outputDir)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve output directory").
			WithContext(logfields.KeyPath, outputDir).
			Build()
	}
	if siteDir != "" {
		rel, err := filepath.Rel(dir, siteDir)
		if err == nil && (rel == "." || !strings.HasPrefix(rel, "..")) {
			return "", ferrors.ValidationError("output directory must not contain the site directory").
				WithContext(logfields.KeyPath, dir).
				Build()
		}
	}
	return dir, nil
}

// publishTree writes files into <dir>_stage and swaps it into place:
//  1. Move the existing dir (if any) to <dir>.prev.
//  2. Rename the staging dir to dir.
//  3. Remove the previous output.
//
// On failure the staging dir is removed and dir is left as it was.
func publishTree(ctx context.Context, dir string, files map[string][]byte) error {
	stage := dir + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return fsError(err, "failed to clear staging directory", stage)
	}
	if err := writeTree(ctx, stage, files); err != nil {
		abortStaging(stage)
		return err
	}

	prev := dir + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		abortStaging(stage)
		return fsError(err, "failed to remove previous backup", prev)
	}
	hadOutput := false
	if _, err := os.Stat(dir); err == nil {
		if err := os.Rename(dir, prev); err != nil {
			abortStaging(stage)
			return fsError(err, "failed to move previous output aside", dir)
		}
		hadOutput = true
	}
	if err := os.Rename(stage, dir); err != nil {
		if hadOutput {
			if restoreErr := os.Rename(prev, dir); restoreErr != nil {
				slog.Error("Failed to restore previous output", logfields.Path(dir), logfields.Error(restoreErr))
			}
		}
		abortStaging(stage)
		return fsError(err, "failed to promote staging directory", dir)
	}
	if hadOutput {
		if err := os.RemoveAll(prev); err != nil {
			slog.Warn("Failed to remove previous output", logfields.Path(prev), logfields.Error(err))
		}
	}
	return nil
}

func writeTree(ctx context.Context, root string, files map[string][]byte) error {
	rels := make([]string, 0, len(files))
	for rel := range files {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fsError(err, "failed to create output directory", filepath.Dir(dst))
		}
		if err := os.WriteFile(dst, files[rel], 0o644); err != nil { // #nosec G306 - published site files are world-readable
			return fsError(err, "failed to write output file", dst)
		}
	}
	return nil
}

func abortStaging(stage string) {
	if err := os.RemoveAll(stage); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to remove staging directory after abort", logfields.Path(stage), logfields.Error(err))
		return
	}
	slog.Debug("Removed staging directory after abort", logfields.Path(stage))
}

func fsError(err error, msg, p string) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, msg).
		WithContext(logfields.KeyPath, p).
		Build()
}
