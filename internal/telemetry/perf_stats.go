package telemetry

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

// RecordPerfStats takes a single sample of process stats, it is meant to be
// called once at the end of a run.
func RecordPerfStats(ctx context.Context, tel API) {
	meter := otel.Meter("go.perf_stats")
	cpuGauge, _ := meter.Float64Gauge("cpu_usage")
	memoryGauge, _ := meter.Int64Gauge("allocated_mb")
	goroutineGauge, _ := meter.Int64Gauge("goroutine_count")

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	cpuUsage, err := cpu.PercentWithContext(ctx, 0, false)
	if err == nil && len(cpuUsage) > 0 {
		cpuGauge.Record(ctx, cpuUsage[0])
	} else if err != nil {
		tel.ReportWarning("perf_stats.cpu", err)
	}

	allocated := int64(memStats.Alloc / 1_000_000)
	memoryGauge.Record(ctx, allocated)
	goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))
	tel.ReportCount("perf_stats.allocated_mb", allocated)
}
