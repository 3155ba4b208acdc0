package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"faircamp/internal/cachekey"
	"faircamp/internal/logging"
	"faircamp/internal/services"
)

// Request identifies one artifact to resolve through the cache.
type Request struct {
	Kind cachekey.Kind
	Key  cachekey.Key
	// Ext is the artifact file extension including the dot, e.g. ".opus".
	Ext string
}

// ProducerFunc computes one artifact into destPath. It must either write the
// complete artifact and return nil, or return an error; it must not leave a
// usable-looking partial file behind (the wrapper hands it a scratch path
// and renames only on success).
type ProducerFunc func(ctx context.Context, destPath string) error

// GetOrCompute resolves a request to an on-disk artifact path.
//
// A hit returns the existing artifact after checking the file still exists;
// an index record whose file vanished is treated as a miss with a notice, not
// a failure. A miss invokes produce exactly once and inserts the entry only
// after success, so producer failures never leave cache records pointing at
// garbage. The orchestrator requests each logical artifact at most once per
// build, so no intra-build deduplication lock exists here.
func (ix *Index) GetOrCompute(ctx context.Context, req Request, produce ProducerFunc) (string, error) {
	if !req.Kind.Valid() {
		return "", services.Wrap(services.ErrValidation, "cache", "get_or_compute", fmt.Sprintf("unknown kind %q", req.Kind), nil)
	}
	if !req.Key.Valid() {
		return "", services.Wrap(services.ErrValidation, "cache", "get_or_compute", fmt.Sprintf("malformed key %q", req.Key), nil)
	}

	if entry, ok := ix.Lookup(req.Key); ok {
		artifact := ix.ArtifactPath(entry)
		if _, err := os.Stat(artifact); err == nil {
			return artifact, nil
		} else if errors.Is(err, fs.ErrNotExist) {
			ix.logger.Warn("cached artifact missing on disk, recomputing",
				logging.String(logging.FieldEventType, "cache_artifact_missing"),
				logging.String(logging.FieldKind, string(entry.Kind)),
				logging.String(logging.FieldCacheKey, entry.Key.Short()),
				logging.String(logging.FieldImpact, "one artifact recomputed this build"))
			ix.removeRecord(req.Key)
		} else {
			return "", fmt.Errorf("stat cached artifact: %w", err)
		}
	}

	relPath := path.Join(req.Kind.Dir(), string(req.Key)+req.Ext)
	artifact := filepath.Join(ix.dir, filepath.FromSlash(relPath))

	// Producers write to a scratch path; the finished artifact appears under
	// its final name only after a successful run.
	scratch := artifact + ".partial"
	if err := produce(ctx, scratch); err != nil {
		_ = os.Remove(scratch)
		return "", err
	}
	if _, err := os.Stat(scratch); err != nil {
		_ = os.Remove(scratch)
		return "", services.Wrap(services.ErrInternal, "cache", "get_or_compute",
			fmt.Sprintf("producer reported success but wrote no artifact for key %s", req.Key.Short()), err)
	}
	if err := os.Rename(scratch, artifact); err != nil {
		_ = os.Remove(scratch)
		return "", fmt.Errorf("finalize artifact: %w", err)
	}

	if err := ix.Insert(req.Key, req.Kind, relPath); err != nil {
		return "", err
	}
	return artifact, nil
}
