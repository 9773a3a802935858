package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/roach88/cable/internal/compiler"
	"github.com/roach88/cable/internal/graph"
	"github.com/roach88/cable/internal/source"
	"github.com/roach88/cable/internal/store"
)

// document is a source file read from disk, compiled on demand.
type document struct {
	Path string
	Src  string
	Root string // directory relative libraries and modules resolve against
}

// readDocument reads path from fs. A missing file is a command error.
func readDocument(fs afero.Fs, f *OutputFormatter, path string) (*document, error) {
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, f.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("document not found: %s", path), nil)
	}
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("failed to read %s", path), err)
	}
	f.VerboseLog("Read %s (%d bytes, %s)", path, len(data), compiler.DetectFormat(path, string(data)))
	return &document{Path: path, Src: string(data), Root: filepath.Dir(path)}, nil
}

// compileDocument reads and compiles path. Validation problems are
// reported through the formatter and fail the command.
func compileDocument(fs afero.Fs, f *OutputFormatter, comp *compiler.Compiler, path string) (*document, graph.Declarations, error) {
	doc, err := readDocument(fs, f, path)
	if err != nil {
		return nil, nil, err
	}
	decls, err := comp.CompileString(path, doc.Src)
	if err != nil {
		return nil, nil, outputValidationErrors(f, compiler.ValidationErrors(err))
	}
	return doc, decls, nil
}

// fetcher builds the source fetcher for a document, optionally behind a
// bbolt cache. The returned close func is never nil.
func fetcher(fs afero.Fs, root, cachePath string) (graph.Fetcher, func() error, error) {
	var fetch graph.Fetcher = source.Default(fs, root)
	if cachePath == "" {
		return fetch, func() error { return nil }, nil
	}
	cache, err := source.OpenCache(cachePath, fetch)
	if err != nil {
		return nil, nil, err
	}
	return cache, cache.Close, nil
}

// defineError reports a graph error, carrying its code and node as details.
func defineError(f *OutputFormatter, err error) error {
	var details map[string]string
	var gerr *graph.Error
	if errors.As(err, &gerr) {
		details = map[string]string{"code": string(gerr.Code), "node": gerr.Node}
		if gerr.Reference != "" {
			details["reference"] = gerr.Reference
		}
	}
	_ = f.Error(ErrCodeDefine, err.Error(), details)
	return WrapExitError(ExitFailure, "failed to define graph", err)
}

// openStore opens an existing trace database. Unlike store.Open it does
// not create a missing file.
func openStore(f *OutputFormatter, path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), nil)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeReadFailed, "failed to open database", err)
	}
	return st, nil
}
