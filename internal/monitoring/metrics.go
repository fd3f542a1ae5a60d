package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// 回复指标
	RepliesSent      prometheus.Counter
	RepliesFailed    prometheus.Counter
	DispatchDuration prometheus.Histogram
	AttachmentSize   prometheus.Histogram

	// 附件指标
	FilesUploaded prometheus.Counter
	FilesPromoted prometheus.Counter
	FilesSwept    prometheus.Counter

	// 认证指标
	LoginsTotal *prometheus.CounterVec

	// 系统指标
	SystemUptime        prometheus.Gauge
	DatabaseConnections prometheus.Gauge

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	return &Metrics{
		// HTTP 请求指标
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formreply_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formreply_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formreply_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "endpoint"},
		),

		HTTPResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formreply_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "endpoint"},
		),

		// 回复指标
		RepliesSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "formreply_replies_sent_total",
				Help: "Total number of reply emails sent",
			},
		),

		RepliesFailed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "formreply_replies_failed_total",
				Help: "Total number of reply emails that failed to send",
			},
		),

		DispatchDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "formreply_dispatch_duration_seconds",
				Help:    "Reply dispatch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		AttachmentSize: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "formreply_attachment_size_bytes",
				Help:    "Attachment size in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 2, 20),
			},
		),

		// 附件指标
		FilesUploaded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "formreply_files_uploaded_total",
				Help: "Total number of files uploaded",
			},
		),

		FilesPromoted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "formreply_files_promoted_total",
				Help: "Total number of files promoted to permanent storage",
			},
		),

		FilesSwept: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "formreply_files_swept_total",
				Help: "Total number of stale temporary files removed",
			},
		),

		// 认证指标
		LoginsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formreply_logins_total",
				Help: "Total number of login attempts",
			},
			[]string{"result"},
		),

		// 系统指标
		SystemUptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "formreply_system_uptime_seconds",
				Help: "System uptime in seconds",
			},
		),

		DatabaseConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "formreply_database_connections",
				Help: "Number of database connections",
			},
		),

		// 错误指标
		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formreply_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "component"},
		),

		PanicsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "formreply_panics_total",
				Help: "Total number of panics",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration, requestSize, responseSize int64) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	m.HTTPRequestSize.WithLabelValues(method, endpoint).Observe(float64(requestSize))
	m.HTTPResponseSize.WithLabelValues(method, endpoint).Observe(float64(responseSize))
}

// RecordReplySent 记录回复发送成功
func (m *Metrics) RecordReplySent() {
	m.RepliesSent.Inc()
}

// RecordReplyFailed 记录回复发送失败
func (m *Metrics) RecordReplyFailed() {
	m.RepliesFailed.Inc()
}

// RecordDispatchDuration 记录一次派发的耗时
func (m *Metrics) RecordDispatchDuration(duration time.Duration) {
	m.DispatchDuration.Observe(duration.Seconds())
}

// RecordAttachmentSize 记录附件大小
func (m *Metrics) RecordAttachmentSize(size int64) {
	m.AttachmentSize.Observe(float64(size))
}

// RecordFileUploaded 记录附件上传
func (m *Metrics) RecordFileUploaded() {
	m.FilesUploaded.Inc()
}

// RecordFilePromoted 记录附件转为永久存储
func (m *Metrics) RecordFilePromoted() {
	m.FilesPromoted.Inc()
}

// RecordFilesSwept 记录清理的临时附件数量
func (m *Metrics) RecordFilesSwept(count int) {
	m.FilesSwept.Add(float64(count))
}

// RecordLogin 记录登录尝试，result 为 "success" 或 "failure"
func (m *Metrics) RecordLogin(result string) {
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// UpdateSystemUptime 更新系统运行时间
func (m *Metrics) UpdateSystemUptime(uptime time.Duration) {
	m.SystemUptime.Set(uptime.Seconds())
}

// UpdateDatabaseConnections 更新数据库连接数
func (m *Metrics) UpdateDatabaseConnections(count int) {
	m.DatabaseConnections.Set(float64(count))
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
