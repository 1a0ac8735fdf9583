package main

import (
	"go.uber.org/zap"

	"pimformat/internal/metrics"
	"pimformat/internal/metrics/datadog"
	"pimformat/internal/metrics/prompush"
)

// setupMetrics installs the configured backend and returns a func that
// flushes it. A backend that fails to start is logged and left as nop.
func (a *app) setupMetrics() func() {
	m := a.cfg.Metrics
	log := a.logger.With(zap.String("backend", m.Backend))

	var (
		b   metrics.Backend
		err error
	)
	switch m.Backend {
	case "prometheus", "pushgateway":
		b, err = prompush.NewBackend(a.cfg.Job, m.PushgatewayURL)
		log = log.With(zap.String("url", m.PushgatewayURL))
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       m.DogStatsDAddr,
			Namespace:  "pimformat.",
			GlobalTags: []string{"job:" + a.cfg.Job},
		})
		log = log.With(zap.String("addr", m.DogStatsDAddr))
	case "", "none":
		log.Debug("metrics disabled")
		return func() {}
	default:
		log.Warn("unknown metrics backend; metrics disabled")
		return func() {}
	}
	if err != nil {
		log.Warn("metrics backend failed to start; using nop", zap.Error(err))
		return func() {}
	}

	metrics.SetBackend(b)
	log.Debug("metrics enabled")
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", zap.Error(err))
		}
	}
}
