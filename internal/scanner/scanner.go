package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"norm-check/internal/engine"
	"norm-check/internal/model"
)

// FileWalker is responsible for traversing directories and feeding files to a channel
type FileWalker struct {
	Extensions map[string]struct{}
	Excludes   []string
}

func NewFileWalker(exts []string, excludes []string) *FileWalker {
	e := make(map[string]struct{})
	for _, ext := range exts {
		e[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &FileWalker{
		Extensions: e,
		Excludes:   excludes,
	}
}

func (fw *FileWalker) excluded(path, name string) bool {
	for _, exclude := range fw.Excludes {
		if matched, _ := filepath.Match(exclude, name); matched || strings.Contains(path, exclude) {
			return true
		}
	}
	return false
}

// Walk starts the traversal and returns a channel of file paths.
// It runs in a separate goroutine and closes the channel when done.
func (fw *FileWalker) Walk(ctx context.Context, root string) (<-chan string, <-chan error) {
	paths := make(chan string, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(paths)
		defer close(errs)

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if d.IsDir() {
				if path != root && fw.excluded(path, d.Name()) {
					return filepath.SkipDir
				}
				if strings.HasPrefix(d.Name(), ".") && path != root {
					return filepath.SkipDir // hidden directories like .git
				}
				return nil
			}

			if fw.excluded(path, d.Name()) {
				return nil
			}

			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
			if _, ok := fw.Extensions[ext]; ok {
				select {
				case paths <- path:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})

		if err != nil {
			errs <- err
		}
	}()

	return paths, errs
}

type ScanResult struct {
	File   string
	Report *model.MultiSchemaReport
	Error  error
}

// Processor analyses one file
type Processor func(path string) (*model.MultiSchemaReport, error)

// EngineProcessor reads a file and analyses it with e. Every file is an independent call.
func EngineProcessor(e *engine.Engine) Processor {
	return func(path string) (*model.MultiSchemaReport, error) {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return e.AnalyzeContent(path, content)
	}
}

// WorkerPool manages concurrent processing
type WorkerPool struct {
	Concurrency int
	Processor   Processor
}

func NewWorkerPool(concurrency int, proc Processor) *WorkerPool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &WorkerPool{
		Concurrency: concurrency,
		Processor:   proc,
	}
}

func (wp *WorkerPool) Start(ctx context.Context, paths <-chan string) <-chan ScanResult {
	results := make(chan ScanResult)
	var wg sync.WaitGroup

	for i := 0; i < wp.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				select {
				case <-ctx.Done():
					return
				default:
					report, err := wp.Processor(path)
					// failed files are reported too
					select {
					case results <- ScanResult{File: path, Report: report, Error: err}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// Scan walks every root, analyses the matching files in the pool and returns one
// FileReport per file sorted by path. Walk failures are combined into the error; file
// failures stay in their FileReport.
func Scan(ctx context.Context, walker *FileWalker, pool *WorkerPool, roots []string) ([]model.FileReport, error) {
	paths := make(chan string, 100)
	walkErrs := make(chan error, len(roots))

	go func() {
		defer close(paths)
		defer close(walkErrs)
		for _, root := range roots {
			found, errs := walker.Walk(ctx, root)
			for p := range found {
				select {
				case paths <- p:
				case <-ctx.Done():
				}
			}
			if err := <-errs; err != nil {
				walkErrs <- err
			}
		}
	}()

	var reports []model.FileReport
	for res := range pool.Start(ctx, paths) {
		fr := model.FileReport{Path: res.File, Report: res.Report}
		if res.Error != nil {
			fr.Error = res.Error.Error()
		}
		reports = append(reports, fr)
	}

	var err error
	for e := range walkErrs {
		err = multierr.Append(err, e)
	}
	if ctx.Err() != nil {
		err = multierr.Append(err, ctx.Err())
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })
	return reports, err
}
