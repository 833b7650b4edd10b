package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"quizbot/internal/domain"
	"quizbot/internal/logger"

	"github.com/tmc/langchaingo/documentloaders"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// codeExtensions whitelists the file types loaded by the code loader.
var codeExtensions = map[string]bool{
	".go":   true,
	".py":   true,
	".js":   true,
	".jsx":  true,
	".ts":   true,
	".tsx":  true,
	".html": true,
	".css":  true,
	".json": true,
	".md":   true,
	".txt":  true,
	".yml":  true,
	".yaml": true,
}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"build":        true,
	"dist":         true,
	"vendor":       true,
	"testdata":     true,
	"data":         true,
	"chroma":       true,
	"__pycache__":  true,
}

// maxConcurrentReads bounds parallel file reads during loading.
const maxConcurrentReads = 8

// Loader reads source documents from disk. Every file it encounters yields a
// LoadResult: either a loaded document or a skip with an explicit reason, so
// callers and tests can observe what was left out.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// LoadCode walks root and loads every whitelisted code/text file. Reads run
// concurrently but results keep walk order.
func (l *Loader) LoadCode(ctx context.Context, root string) ([]domain.LoadResult, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, domain.NewIngestionError(fmt.Sprintf("failed to walk %s", root), err)
	}

	results := make([]domain.LoadResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = l.loadCodeFile(root, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, domain.NewIngestionError("code loading aborted", err)
	}

	return results, nil
}

func (l *Loader) loadCodeFile(root, path string) domain.LoadResult {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	ext := strings.ToLower(filepath.Ext(path))
	if !codeExtensions[ext] {
		return domain.LoadResult{Source: rel, Skipped: true, SkipReason: fmt.Sprintf("extension %q not whitelisted", ext)}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return domain.LoadResult{Source: rel, Skipped: true, SkipReason: fmt.Sprintf("read failed: %v", err)}
	}

	return domain.LoadResult{
		Source: rel,
		Document: domain.Document{
			Source:   rel,
			Content:  string(content),
			FileType: ext,
			Category: "code",
		},
	}
}

// LoadPDFs loads every PDF under dir, one document per page, all pages of a
// file sharing the file's source path. Unreadable PDFs are reported as skips.
func (l *Loader) LoadPDFs(ctx context.Context, dir string) ([]domain.LoadResult, error) {
	var results []domain.LoadResult

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".pdf" {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		pages, loadErr := l.loadPDFPages(ctx, path, rel)
		if loadErr != nil {
			logger.Get().Warn("Skipping unreadable PDF",
				zap.String("source", rel),
				zap.Error(loadErr))
			results = append(results, domain.LoadResult{
				Source:     rel,
				Skipped:    true,
				SkipReason: loadErr.Error(),
			})
			return nil
		}
		results = append(results, pages...)
		return nil
	})
	if err != nil {
		return nil, domain.NewIngestionError(fmt.Sprintf("failed to walk %s", dir), err)
	}

	return results, nil
}

func (l *Loader) loadPDFPages(ctx context.Context, path, rel string) ([]domain.LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	docs, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]domain.LoadResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, domain.LoadResult{
			Source: rel,
			Document: domain.Document{
				Source:   rel,
				Content:  doc.PageContent,
				FileType: ".pdf",
				Category: "notes",
			},
		})
	}
	return results, nil
}

// LoadedDocuments filters a result list down to the successfully loaded documents.
func LoadedDocuments(results []domain.LoadResult) []domain.Document {
	docs := make([]domain.Document, 0, len(results))
	for _, r := range results {
		if !r.Skipped {
			docs = append(docs, r.Document)
		}
	}
	return docs
}
