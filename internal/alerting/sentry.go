package alerting

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jo-hoe/logomigrator/internal/common"
)

// Config enables failure reporting when DSN is set.
type Config struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

// SentryReporter sends per entry failures to Sentry.
type SentryReporter struct {
	hub *sentry.Hub
}

func NewSentryReporter(cfg Config, release string) (*SentryReporter, error) {
	return NewSentryReporterWithOptions(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     release,
	})
}

func NewSentryReporterWithOptions(options sentry.ClientOptions) (*SentryReporter, error) {
	client, err := sentry.NewClient(options)
	if err != nil {
		return nil, err
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// ReportFailure captures err tagged with the entry and the stage it failed in.
func (r *SentryReporter) ReportFailure(entry, stage string, err error) {
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("logo", entry)
		scope.SetTag("stage", stage)
		if kind := common.ErrorKind(err); kind != "" {
			scope.SetTag("error_kind", kind)
		}
		r.hub.CaptureException(err)
	})
}

// Flush waits up to timeout for buffered events to be delivered.
func (r *SentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}
