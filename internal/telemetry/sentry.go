// Package telemetry configures Sentry error reporting. Only built errors of
// reportable categories are sent, and every event is scrubbed of
// credentials, URL query strings and host identification first.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Ridwan414/shobdotori/internal/buildinfo"
	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/logger"
)

const flushTimeout = 2 * time.Second

type options struct {
	transport sentry.Transport
}

// Option configures InitSentry.
type Option func(*options)

// WithTransport replaces the HTTP transport, used by tests.
func WithTransport(t sentry.Transport) Option {
	return func(o *options) { o.transport = t }
}

// InitSentry initializes Sentry and installs the errors package reporter.
// It is a no-op when Sentry is disabled.
func InitSentry(settings *conf.SentrySettings, info buildinfo.BuildInfo, opts ...Option) error {
	if !settings.Enabled {
		errors.SetTelemetryReporter(nil)
		return nil
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	environment := settings.Environment
	if environment == "" {
		environment = "production"
	}
	sampleRate := settings.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.DSN,
		SampleRate:       sampleRate,
		AttachStacktrace: false,
		Environment:      environment,
		ServerName:       "",
		Release:          fmt.Sprintf("shobdotori@%s", info.GetVersion()),
		Transport:        o.transport,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event, info.GetInstanceID())
		},
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	logger.Global().Module("telemetry").Info("error telemetry enabled",
		logger.String("environment", environment),
		logger.String("release", info.GetVersion()))
	return nil
}

// Flush waits for queued events to be sent.
func Flush() {
	sentry.Flush(flushTimeout)
}

// applyPrivacyFilters strips identifying data and scrubs messages.
func applyPrivacyFilters(event *sentry.Event, instanceID string) *sentry.Event {
	event.User = sentry.User{ID: instanceID}
	event.ServerName = ""
	event.Request = nil
	event.Modules = nil

	event.Message = errors.ScrubMessage(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = errors.ScrubMessage(event.Exception[i].Value)
	}

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}
	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}
	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}
	return event
}
