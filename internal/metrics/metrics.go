package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency distribution",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method"})
	RequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"path", "method", "status"})
	Inflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "In-flight HTTP requests",
	})
	DBUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_up",
		Help: "Database connectivity (1=up,0=down)",
	})
	RedisUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "redis_up",
		Help: "Redis connectivity (1=up,0=down)",
	})
	KafkaUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kafka_up",
		Help: "Kafka connectivity (1=up,0=down)",
	})
	EtcdUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "etcd_up",
		Help: "Etcd connectivity (1=up,0=down)",
	})
	DependencyCheckDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dependency_check_duration_seconds",
		Help:    "Latency of dependency health checks",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.4, 0.8, 1},
	}, []string{"dep"})

	// ===== authentication log view =====
	AuthLogRenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "authlog_render_duration_seconds",
		Help:    "Latency of building one authentication log table page",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope"})
	AuthLogRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "authlog_rows_per_page",
		Help:    "Rows returned per authentication log page",
		Buckets: []float64{0, 5, 10, 25, 50, 100, 200},
	})
	AuthLogOwnerUnresolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authlog_owner_unresolved_total",
		Help: "Owner references rendered as raw identifiers",
	}, []string{"reason"})
	AuthLogMutationRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authlog_mutation_rejected_total",
		Help: "Create/edit/delete attempts rejected by the read-only view",
	}, []string{"action"})
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Layered cache lookups by serving layer (l1, l2, miss, error)",
	}, []string{"cache", "result"})

	// ===== operation log (kafka async sender) =====
	OpLogEnqueue = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oplog_kafka_enqueue_total",
		Help: "Operation log messages offered to the async sender",
	}, []string{"result"})
	OpLogQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oplog_kafka_queue_depth",
		Help: "Operation log messages waiting in the async sender queue",
	})
	OpLogBatchFlush = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oplog_kafka_batch_flush_total",
		Help: "Async sender batch flushes by trigger",
	}, []string{"reason"})
	OpLogBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "oplog_kafka_batch_size",
		Help:    "Messages per async sender batch",
		Buckets: []float64{1, 5, 10, 20, 50, 100},
	})
	OpLogSendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "oplog_kafka_send_duration_seconds",
		Help:    "Latency of one async sender batch write",
		Buckets: prometheus.DefBuckets,
	})
	OpLogSendErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oplog_kafka_send_errors_total",
		Help: "Operation log messages whose batch write failed",
	})
)
