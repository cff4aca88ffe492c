package ledger

import (
	"context"
	"fmt"
	"os"
)

// QuotaEstimate reports local storage usage against the configured quota,
// both in bytes. Percentage is 0 when no quota is configured.
type QuotaEstimate struct {
	Usage      int64
	Quota      int64
	Percentage float64
}

// QuotaEstimator reports how much of the local storage budget is in use.
type QuotaEstimator interface {
	Estimate(ctx context.Context) (QuotaEstimate, error)
}

// FileEstimator measures the on-disk size of the SQLite database (main file
// plus WAL) against a configured quota.
type FileEstimator struct {
	path  string
	quota int64
}

func NewFileEstimator(path string, quotaBytes int64) *FileEstimator {
	return &FileEstimator{path: path, quota: quotaBytes}
}

func (e *FileEstimator) Estimate(ctx context.Context) (QuotaEstimate, error) {
	var usage int64
	for _, p := range []string{e.path, e.path + "-wal"} {
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return QuotaEstimate{}, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		usage += info.Size()
	}

	est := QuotaEstimate{Usage: usage, Quota: e.quota}
	if e.quota > 0 {
		est.Percentage = float64(usage) / float64(e.quota) * 100
	}
	return est, nil
}
