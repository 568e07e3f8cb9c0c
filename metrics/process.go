package metrics

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/process"
)

var (
	procCPU = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "dirtar", Subsystem: "process", Name: "cpu_percent", Help: "Server CPU percent"},
	)
	procRSS = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "dirtar", Subsystem: "process", Name: "memory_rss_bytes", Help: "Server RSS bytes"},
	)
	procOpenFiles = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "dirtar", Subsystem: "process", Name: "open_files", Help: "Open file descriptors held by the server"},
	)
)

func init() {
	prometheus.MustRegister(procCPU, procRSS, procOpenFiles)
}

// SampleProcess samples CPU, RSS and open files of the current process every
// interval until ctx is done. Scratch archives that are never released show
// up as a growing open file count.
func SampleProcess(ctx context.Context, interval time.Duration) error {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())) //nolint:gosec // G115: pid fits in int32
	if err != nil {
		return err
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}

	// Warm-up for CPU percent baseline
	_, _ = p.CPUPercentWithContext(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sampleOnce(ctx, p)
		}
	}
}

func sampleOnce(ctx context.Context, p *process.Process) {
	if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
		procCPU.Set(cpu)
	}
	if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
		procRSS.Set(float64(mi.RSS))
	}
	if n, err := p.NumFDsWithContext(ctx); err == nil {
		procOpenFiles.Set(float64(n))
	}
}
