// Package metrics объявляет метрики Prometheus сервиса. Все коллекторы
// регистрируются в реестре по умолчанию и отдаются через promhttp.Handler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SweepsTotal число запусков обхода напоминаний по результату (ok, skipped, error).
	SweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subbers",
		Subsystem: "reminder",
		Name:      "sweeps_total",
		Help:      "Reminder sweeps by outcome.",
	}, []string{"outcome"})

	// RemindersMarked число отмеченных напоминаний.
	RemindersMarked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "subbers",
		Subsystem: "reminder",
		Name:      "marked_total",
		Help:      "Reminders marked as sent.",
	})

	// ReminderFailures ошибки по этапу (evaluate, mark, notify).
	ReminderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subbers",
		Subsystem: "reminder",
		Name:      "failures_total",
		Help:      "Per-event reminder failures by stage.",
	}, []string{"stage"})

	// SweepDuration длительность обхода.
	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "subbers",
		Subsystem: "reminder",
		Name:      "sweep_duration_seconds",
		Help:      "Duration of a reminder sweep.",
		Buckets:   prometheus.DefBuckets,
	})

	// BillingPages число загруженных страниц подписок.
	BillingPages = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "subbers",
		Subsystem: "billing",
		Name:      "pages_total",
		Help:      "Subscription pages fetched from the billing provider.",
	})

	// RemindersSent письма, отправленные отправителем, по результату.
	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subbers",
		Subsystem: "sender",
		Name:      "emails_total",
		Help:      "Reminder emails by outcome.",
	}, []string{"outcome"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "subbers",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Middleware измеряет длительность запросов. Маршрут берётся из шаблона chi,
// чтобы метки не зависели от параметров пути.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
