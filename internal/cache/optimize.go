package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"faircamp/internal/logging"
)

// Strategy selects how stale entries are scheduled for purging.
type Strategy string

const (
	// StrategyDelayed keeps stale entries alive for a grace window; the
	// default, tuned for iterative editing.
	StrategyDelayed Strategy = "delayed"
	// StrategyImmediate purges entries at the end of the build that made
	// them stale.
	StrategyImmediate Strategy = "immediate"
	// StrategyWipe empties the whole cache before every build.
	StrategyWipe Strategy = "wipe"
	// StrategyManual never purges automatically; reclamation happens through
	// explicit CLI commands.
	StrategyManual Strategy = "manual"
)

// ParseStrategy validates a configured strategy name.
func ParseStrategy(value string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(value))) {
	case StrategyDelayed:
		return StrategyDelayed, nil
	case StrategyImmediate:
		return StrategyImmediate, nil
	case StrategyWipe:
		return StrategyWipe, nil
	case StrategyManual:
		return StrategyManual, nil
	default:
		return "", fmt.Errorf("unknown cache strategy %q", value)
	}
}

// SweepResult summarizes one end-of-build sweep.
type SweepResult struct {
	MarkedStale int
	Purged      int
	Failed      int
}

// Optimizer applies the configured strategy to the index at build boundaries.
type Optimizer struct {
	index    *Index
	strategy Strategy
	grace    time.Duration
	logger   *slog.Logger
}

// NewOptimizer wires an optimizer to an open index. The grace duration only
// matters under the delayed strategy; zero purges stale entries on the next
// sweep after they became stale.
func NewOptimizer(index *Index, strategy Strategy, grace time.Duration, logger *slog.Logger) *Optimizer {
	return &Optimizer{
		index:    index,
		strategy: strategy,
		grace:    grace,
		logger:   logging.NewComponentLogger(logger, "optimizer"),
	}
}

// Strategy returns the configured strategy.
func (o *Optimizer) Strategy() Strategy {
	return o.strategy
}

// PrepareBuild runs strategy actions that precede artifact computation.
// Under wipe, every entry regardless of state is purged so the build starts
// against an empty cache.
func (o *Optimizer) PrepareBuild() error {
	if o.strategy != StrategyWipe {
		return nil
	}
	purged, failed := o.purgeEntries(o.index.Entries())
	o.logger.Info("cache wiped before build",
		logging.Int("purged", purged),
		logging.Int("failed", failed))
	return nil
}

// Sweep runs the end-of-build staleness pass. Entries not looked up this
// build go fresh -> stale; entries already stale past the strategy's horizon
// go stale -> purged. Under manual, nothing is purged here.
func (o *Optimizer) Sweep(now time.Time) SweepResult {
	var result SweepResult
	var purgeList []Entry

	o.index.mu.Lock()
	for _, entry := range o.index.entries {
		if o.index.used[entry.Key] {
			continue
		}
		justStaled := false
		if entry.State == StateFresh {
			entry.markStale(now)
			result.MarkedStale++
			justStaled = true
		}
		if o.shouldPurge(entry, now, justStaled) {
			purgeList = append(purgeList, *entry)
		}
	}
	o.index.mu.Unlock()

	result.Purged, result.Failed = o.purgeEntries(purgeList)
	return result
}

// shouldPurge decides the Stale -> Purged edge for one swept entry. Under
// the delayed strategy an entry always survives the build that staled it,
// even with a zero grace window; the window is measured on later builds.
func (o *Optimizer) shouldPurge(entry *Entry, now time.Time, justStaled bool) bool {
	if entry.State != StateStale {
		return false
	}
	switch o.strategy {
	case StrategyImmediate:
		return true
	case StrategyDelayed:
		return !justStaled && entry.StaleSince != nil && now.Sub(*entry.StaleSince) >= o.grace
	default:
		return false
	}
}

// PurgeStale deletes every stale entry now, regardless of strategy. Backs
// the `cache optimize` command for manual operation.
func (o *Optimizer) PurgeStale() (int, int) {
	var stale []Entry
	for _, entry := range o.index.Entries() {
		if entry.State == StateStale {
			stale = append(stale, entry)
		}
	}
	return o.purgeEntries(stale)
}

// PurgeAll deletes every entry now. Backs the `cache wipe` command.
func (o *Optimizer) PurgeAll() (int, int) {
	return o.purgeEntries(o.index.Entries())
}

// purgeEntries removes artifact files and then their index records. The
// artifact deletion is confirmed before the record goes, so a crash between
// the two leaves at worst an orphaned file. Filesystem errors are logged and
// leave the entry in place for the next build's sweep.
func (o *Optimizer) purgeEntries(entries []Entry) (purged, failed int) {
	for _, entry := range entries {
		artifact := o.index.ArtifactPath(entry)
		if err := os.Remove(artifact); err != nil && !errors.Is(err, fs.ErrNotExist) {
			failed++
			o.logger.Warn("could not delete cached artifact",
				logging.String(logging.FieldEventType, "cache_purge_failed"),
				logging.String(logging.FieldKind, string(entry.Kind)),
				logging.String(logging.FieldCacheKey, entry.Key.Short()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "entry kept; retried on the next build"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"))
			continue
		}
		o.index.removeRecord(entry.Key)
		purged++
	}
	if purged > 0 {
		o.logger.Debug("purged cache entries", logging.Int("count", purged))
	}
	return purged, failed
}
