package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "edgeops"
	subsystem = "provisioner"

	StatusOK    = "ok"
	StatusError = "error"

	LabelStatus    = "status"
	LabelTool      = "tool"
	LabelOperation = "operation"
	LabelPhase     = "phase"
)

func statusLabel(err error) string {
	if err == nil {
		return StatusOK
	}
	return StatusError
}

func ToolInvocation(tool string, err error) {
	toolInvocations.With(prometheus.Labels{
		LabelTool:   tool,
		LabelStatus: statusLabel(err),
	}).Inc()
}

func RemoteAPICall(operation string, err error) {
	remoteAPICalls.With(prometheus.Labels{
		LabelOperation: operation,
		LabelStatus:    statusLabel(err),
	}).Inc()
}

func DeployPhase(phase, status string) {
	deployPhases.With(prometheus.Labels{
		LabelPhase:  phase,
		LabelStatus: status,
	}).Inc()
}

func DatabaseQuery(t time.Time, err error) {
	elapsed := time.Since(t)
	databaseQueries.With(prometheus.Labels{
		LabelStatus: statusLabel(err),
	}).Observe(elapsed.Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}

var (
	toolInvocations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "tool_invocations_total",
		Help:      "number of tool invocations, labeled with tool name and status",
		Namespace: namespace,
		Subsystem: subsystem,
	}, []string{LabelTool, LabelStatus})

	remoteAPICalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "remote_api_calls_total",
		Help:      "number of calls made to the Cloudflare REST API",
		Namespace: namespace,
		Subsystem: subsystem,
	}, []string{LabelOperation, LabelStatus})

	deployPhases = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "deploy_phases_total",
		Help:      "deployment phase outcomes",
		Namespace: namespace,
		Subsystem: subsystem,
	}, []string{LabelPhase, LabelStatus})

	databaseQueries = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:      "database_queries",
		Help:      "time to execute audit database queries",
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   prometheus.LinearBuckets(0.005, 0.025, 20),
	}, []string{LabelStatus})
)

func init() {
	prometheus.MustRegister(toolInvocations)
	prometheus.MustRegister(remoteAPICalls)
	prometheus.MustRegister(deployPhases)
	prometheus.MustRegister(databaseQueries)
}
