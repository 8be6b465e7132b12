package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the counters and histograms exposed on /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	JobsStarted   *prometheus.CounterVec
	JobsCompleted *prometheus.CounterVec
	JobRecords    prometheus.Histogram
	JobDuration   prometheus.Histogram

	TickDuration     prometheus.Histogram
	SchedulesClaimed prometheus.Counter
	ScheduleFailures prometheus.Counter
	NotifyDispatched prometheus.Counter
	NotifyFailures   prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,
		JobsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audittrail_export_jobs_started_total",
			Help: "Export jobs moved into processing.",
		}, []string{"format"}),
		JobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audittrail_export_jobs_finished_total",
			Help: "Export jobs reaching a terminal state.",
		}, []string{"format", "status"}),
		JobRecords: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "audittrail_export_job_records",
			Help:    "Records written per completed export job.",
			Buckets: prometheus.ExponentialBuckets(10, 10, 7),
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "audittrail_export_job_duration_seconds",
			Help:    "Wall time of export job execution.",
			Buckets: prometheus.DefBuckets,
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "audittrail_scheduler_tick_duration_seconds",
			Help:    "Duration of one scheduler tick.",
			Buckets: prometheus.DefBuckets,
		}),
		SchedulesClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audittrail_schedules_claimed_total",
			Help: "Due schedules successfully claimed for materialization.",
		}),
		ScheduleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audittrail_schedule_failures_total",
			Help: "Due schedules whose materialization or run failed.",
		}),
		NotifyDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audittrail_notifications_dispatched_total",
			Help: "Job completion notifications handed to the notifier.",
		}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audittrail_notification_failures_total",
			Help: "Notification dispatches that returned an error.",
		}),
	}

	reg.MustRegister(
		m.JobsStarted,
		m.JobsCompleted,
		m.JobRecords,
		m.JobDuration,
		m.TickDuration,
		m.SchedulesClaimed,
		m.ScheduleFailures,
		m.NotifyDispatched,
		m.NotifyFailures,
	)
	return m
}
