package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blds",
			Subsystem: "client",
			Name:      "commands_total",
			Help:      "Total commands sent to the BLDS.",
		},
		[]string{"command", "outcome"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blds",
			Subsystem: "client",
			Name:      "command_duration_seconds",
			Help:      "Round-trip command duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	dataFrames = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blds",
			Subsystem: "client",
			Name:      "data_frames_total",
			Help:      "Data frames received from the BLDS.",
		},
	)
	dataBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blds",
			Subsystem: "client",
			Name:      "data_bytes_total",
			Help:      "Sample payload bytes received from the BLDS.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(commands, commandDuration, dataFrames, dataBytes)
	})
}

func RecordCommand(command string, err error, duration time.Duration) {
	RegisterMetrics()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	commands.WithLabelValues(command, outcome).Inc()
	commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func RecordDataFrame(sampleBytes int) {
	RegisterMetrics()
	dataFrames.Inc()
	dataBytes.Add(float64(sampleBytes))
}
