package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"faircamp/internal/cache"
	"faircamp/internal/cachekey"
	"faircamp/internal/fileutil"
	"faircamp/internal/logging"
	"faircamp/internal/services"
)

// runJobs resolves every planned artifact through the cache under a bounded
// worker pool, copies results into the build directory and fills view slots.
//
// A producer failure is charged to every release that owns the job and the
// pool keeps going; only internal cache errors cancel the group and abort
// the build. The returned map holds the first failure per release slug.
func (b *Builder) runJobs(ctx context.Context, index *cache.Index, jobs []*artifactJob) (map[string]error, error) {
	assetsRoot := filepath.Join(b.cfg.Paths.BuildDir, "assets")
	for _, kind := range cachekey.Kinds() {
		if err := os.MkdirAll(filepath.Join(assetsRoot, kind.Dir()), 0o755); err != nil {
			return nil, fmt.Errorf("create assets directory: %w", err)
		}
	}

	var mu sync.Mutex
	failed := make(map[string]error)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			err := b.runJob(gctx, index, job)
			if err == nil {
				return nil
			}
			if services.IsFatal(err) || gctx.Err() != nil {
				return err
			}
			mu.Lock()
			for _, owner := range job.owners {
				if _, seen := failed[owner]; !seen {
					failed[owner] = err
				}
			}
			mu.Unlock()
			b.logger.Warn("artifact production failed",
				logging.String(logging.FieldEventType, "artifact_failed"),
				logging.String(logging.FieldKind, string(job.req.Kind)),
				logging.String(logging.FieldCacheKey, job.req.Key.Short()),
				logging.Error(err),
				logging.String(logging.FieldImpact, fmt.Sprintf("%d release(s) excluded from this build", len(job.owners))))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return failed, nil
}

func (b *Builder) runJob(ctx context.Context, index *cache.Index, job *artifactJob) error {
	artifact, err := index.GetOrCompute(ctx, job.req, job.produce)
	if err != nil {
		return err
	}
	info, err := os.Stat(artifact)
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}

	url := relativeURL(job.req)
	dest := filepath.Join(b.cfg.Paths.BuildDir, filepath.FromSlash(url))
	if err := fileutil.CopyFile(artifact, dest); err != nil {
		return fmt.Errorf("copy artifact into build directory: %w", err)
	}

	for _, assign := range job.assigns {
		assign(url, info.Size())
	}
	return nil
}
