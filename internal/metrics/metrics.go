package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pal_job_submissions_created_total",
			Help: "Total number of job submissions created",
		},
		[]string{"category"},
	)

	SubmissionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pal_job_submission_transitions_total",
			Help: "Total number of job submission status changes",
		},
		[]string{"from", "to"},
	)

	SMSSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pal_sms_sent_total",
			Help: "Total number of SMS dispatch attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	ReviewRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pal_review_requests_total",
			Help: "Total number of review requests by channel and delivery status",
		},
		[]string{"channel", "status"},
	)

	AIReportPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pal_ai_report_polls_total",
			Help: "Total number of finished AI report pollers by outcome",
		},
		[]string{"outcome"},
	)

	AIReportPollersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pal_ai_report_pollers_active",
			Help: "Number of AI report pollers currently running",
		},
	)

	TechHubMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pal_tech_hub_messages_total",
			Help: "Total number of Tech Hub feed entries by kind",
		},
		[]string{"kind"},
	)

	ClientLogsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pal_client_logs_ingested_total",
			Help: "Total number of client log entries ingested by level",
		},
		[]string{"level"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pal_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pal_websocket_clients",
			Help: "Number of connected WebSocket clients",
		},
	)
)
