package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"salarycli/internal/config"
)

// ManifestName is the object written last under each run prefix
const ManifestName = "manifest.json"

const defaultUploadWorkers = 4

var contentTypes = map[string]string{
	".csv":   "text/csv",
	".json":  "application/json",
	".png":   "image/png",
	".html":  "text/html; charset=utf-8",
	".tex":   "application/x-tex",
	".xlsx":  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".model": "application/x-snappy-framed",
}

// ContentType picks the upload content type from the file extension
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Manifest lists what one publish uploaded
type Manifest struct {
	RunID       string       `json:"run_id"`
	Prefix      string       `json:"prefix"`
	PublishedAt time.Time    `json:"published_at"`
	Objects     []ObjectInfo `json:"objects"`
}

// Publisher uploads the output directories of a run
type Publisher struct {
	store   Storage
	prefix  string
	workers int
	logger  *slog.Logger
}

// NewPublisher wraps store; objects are keyed as <prefix>/<run id>/<dir>/<file>
func NewPublisher(store Storage, prefix string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		store:   store,
		prefix:  strings.Trim(prefix, "/"),
		workers: defaultUploadWorkers,
		logger:  logger.With(slog.String("component", "storage")),
	}
}

// ObjectKey joins the key parts with forward slashes
func (p *Publisher) ObjectKey(runID, dir, rel string) string {
	return path.Join(p.prefix, runID, dir, filepath.ToSlash(rel))
}

// Publish uploads tables, figures, models and reports, then the manifest.
// Missing directories are skipped.
func (p *Publisher) Publish(ctx context.Context, paths *config.Paths, runID string) (*Manifest, error) {
	type upload struct {
		file, key string
	}
	var uploads []upload
	for _, dir := range []string{paths.TablesDir, paths.FiguresDir, paths.ModelsDir, paths.ReportsDir} {
		base := filepath.Base(dir)
		err := filepath.WalkDir(dir, func(file string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(dir, file)
			if err != nil {
				return err
			}
			uploads = append(uploads, upload{file: file, key: p.ObjectKey(runID, base, rel)})
			return nil
		})
		switch {
		case errors.Is(err, fs.ErrNotExist):
			p.logger.DebugContext(ctx, "skipping missing directory", slog.String("dir", dir))
		case err != nil:
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
	}

	manifest := &Manifest{RunID: runID, Prefix: p.ObjectKey(runID, "", ""), PublishedAt: time.Now().UTC()}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, u := range uploads {
		g.Go(func() error {
			info, err := p.putFile(gctx, u.file, u.key)
			if err != nil {
				return err
			}
			mu.Lock()
			manifest.Objects = append(manifest.Objects, info)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(manifest.Objects, func(i, j int) bool { return manifest.Objects[i].Key < manifest.Objects[j].Key })

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	key := p.ObjectKey(runID, "", ManifestName)
	if _, err := p.store.Put(ctx, key, bytes.NewReader(data), PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: ContentType(ManifestName),
	}); err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "artifacts published",
		slog.String("prefix", manifest.Prefix),
		slog.Int("objects", len(manifest.Objects)))
	return manifest, nil
}

func (p *Publisher) putFile(ctx context.Context, file, key string) (ObjectInfo, error) {
	f, err := os.Open(file)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return ObjectInfo{}, err
	}
	info, err := p.store.Put(ctx, key, f, PutObjectOptions{
		Size:        st.Size(),
		ContentType: ContentType(file),
		Metadata:    map[string]string{"source": filepath.Base(file)},
	})
	if err != nil {
		return ObjectInfo{}, err
	}
	p.logger.DebugContext(ctx, "uploaded", slog.String("key", key), slog.Int64("size", info.Size))
	return info, nil
}
