package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultReportInterval matches the cadence of the interactive report.
const DefaultReportInterval = 30 * time.Second

// Progress is the read side of the shared candidate counter.
type Progress interface {
	Load() uint64
	Elapsed() time.Duration
}

// Snapshot is one throughput reading.
type Snapshot struct {
	Keys    uint64
	Elapsed time.Duration
	Rate    float64 // keys per second
}

// Reporter periodically logs throughput and refreshes the metrics textfile.
type Reporter struct {
	progress Progress
	interval time.Duration
	logger   *zap.Logger
	metrics  *Metrics
	textfile string
}

// NewReporter creates a reporter reading from progress every interval.
func NewReporter(progress Progress, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	return &Reporter{
		progress: progress,
		interval: interval,
		logger:   zap.NewNop(),
	}
}

// WithLogger sets the logger used for reports.
func (r *Reporter) WithLogger(logger *zap.Logger) *Reporter {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithMetrics sets the metrics updated on every report and, when textfile is
// not empty, the file the registry is written to.
func (r *Reporter) WithMetrics(m *Metrics, textfile string) *Reporter {
	r.metrics = m
	r.textfile = textfile
	return r
}

// Run reports every interval until ctx is done, then reports once more.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Report()
			return
		case <-ticker.C:
			r.Report()
		}
	}
}

// Report takes a snapshot, logs it and updates the metrics.
func (r *Reporter) Report() Snapshot {
	snap := Snapshot{Keys: r.progress.Load(), Elapsed: r.progress.Elapsed()}
	if secs := snap.Elapsed.Seconds(); secs > 0 {
		snap.Rate = float64(snap.Keys) / secs
	}

	r.logger.Info("Throughput",
		zap.Uint64("keys", snap.Keys),
		zap.Duration("elapsed", snap.Elapsed.Truncate(time.Second)),
		zap.Float64("keys_per_second", snap.Rate))

	r.metrics.SetRate(snap.Rate)
	if err := r.metrics.WriteTextfile(r.textfile); err != nil {
		r.logger.Warn("Failed to write metrics textfile", zap.String("path", r.textfile), zap.Error(err))
	}
	return snap
}
