package handlers

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the catalog's scan, scheduler, cache and codec metrics
// in the Prometheus exposition format. It is only routed when METRICS_ENABLED is set.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog:      promLogger{},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// promLogger forwards exposition errors to the http component logger.
type promLogger struct{}

func (promLogger) Println(v ...interface{}) {
	log.Warn("metrics exposition: %s", fmt.Sprint(v...))
}
