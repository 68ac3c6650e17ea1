// Package app assembles the services of the recording server from its
// settings: database, tracker, storage, transcoder, upload pipeline, event
// bus and its consumers. Commands open only the parts they need.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/datastore"
	"github.com/Ridwan414/shobdotori/internal/events"
	"github.com/Ridwan414/shobdotori/internal/logger"
	"github.com/Ridwan414/shobdotori/internal/mqtt"
	"github.com/Ridwan414/shobdotori/internal/notification"
	"github.com/Ridwan414/shobdotori/internal/observability"
	"github.com/Ridwan414/shobdotori/internal/recorder"
	"github.com/Ridwan414/shobdotori/internal/storage"
	"github.com/Ridwan414/shobdotori/internal/tracker"
	"github.com/Ridwan414/shobdotori/internal/transcode"
)

const (
	mqttConnectTimeout = 15 * time.Second
	busShutdownTimeout = 5 * time.Second
)

// GetLogger returns the app module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("app")
}

// Services are the opened components. Fields of parts that were not
// requested are nil.
type Services struct {
	Settings *conf.Settings
	DB       datastore.Manager
	Tracker  *tracker.Tracker
	Metrics  *observability.Metrics
	Folders  *storage.FolderMapper

	Store    storage.Store
	Bus      *events.EventBus
	Pipeline *recorder.Pipeline
	Admin    *recorder.Admin

	mqttClient mqtt.Client
	log        logger.Logger
}

// Option selects optional parts.
type Option func(*options)

type options struct {
	storage bool
	events  bool
}

// WithStorage opens the configured object store plus the upload pipeline
// and admin operations built on it.
func WithStorage() Option {
	return func(o *options) { o.storage = true }
}

// WithEvents starts the event bus with MQTT and notification consumers.
func WithEvents() Option {
	return func(o *options) { o.events = true }
}

// Open opens the database and tracker, plus whatever opts request. On
// error everything opened so far is closed again.
func Open(ctx context.Context, settings *conf.Settings, opts ...Option) (s *Services, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s = &Services{
		Settings: settings,
		Folders:  storage.NewFolderMapper(settings.Storage.Folders),
		log:      GetLogger(),
	}
	defer func() {
		if err != nil {
			_ = s.Close()
			s = nil
		}
	}()

	if s.Metrics, err = observability.NewMetrics(); err != nil {
		return s, fmt.Errorf("failed to create metrics: %w", err)
	}

	if s.DB, err = datastore.NewManager(&settings.Database, settings.Debug); err != nil {
		return s, err
	}
	if err = s.DB.Initialize(ctx); err != nil {
		return s, err
	}
	s.log.Info("database ready", logger.String("path", s.DB.Path()), logger.Bool("mysql", s.DB.IsMySQL()))

	if s.Tracker, err = tracker.New(s.DB.DB(), settings.Tracker, tracker.WithObserver(s.Metrics.Tracker)); err != nil {
		return s, err
	}

	if o.events {
		if err = s.startEvents(ctx); err != nil {
			return s, err
		}
	}

	if o.storage {
		if err = s.openStorage(ctx); err != nil {
			return s, err
		}
	}

	return s, nil
}

func (s *Services) startEvents(ctx context.Context) error {
	s.Bus = events.New(events.DefaultConfig())
	s.Bus.SetDropObserver(s.Metrics.Pipeline)

	settings := s.Settings
	if settings.MQTT.Enabled {
		client, err := mqtt.NewClient(&settings.MQTT)
		if err != nil {
			return err
		}
		connectCtx, cancel := context.WithTimeout(ctx, mqttConnectTimeout)
		err = client.Connect(connectCtx)
		cancel()
		if err != nil {
			// paho keeps retrying in the background; events are dropped until it connects
			s.log.Warn("mqtt broker unreachable at startup", logger.Error(err))
		}
		s.mqttClient = client
		if err := s.Bus.RegisterConsumer(mqtt.NewPublisher(client, settings.MQTT.Topic)); err != nil {
			return err
		}
	}

	notifier, err := notification.New(&settings.Notification)
	if err != nil {
		return err
	}
	if notifier != nil {
		if err := s.Bus.RegisterConsumer(notifier); err != nil {
			return err
		}
	}
	return nil
}

func (s *Services) openStorage(ctx context.Context) error {
	store, err := storage.New(ctx, &s.Settings.Storage)
	if err != nil {
		return err
	}
	s.Store = storage.Instrument(store, s.Metrics.Pipeline)

	tc := transcode.New(&s.Settings.Audio, s.Settings.Upload.TempDir)

	var publisher events.Publisher
	if s.Bus != nil {
		publisher = s.Bus
	}

	s.Pipeline, err = recorder.NewPipeline(s.Tracker, s.Store, tc, s.Folders, s.Settings.Upload,
		recorder.WithPublisher(publisher),
		recorder.WithStageObserver(s.Metrics.Pipeline))
	if err != nil {
		return err
	}
	s.Admin = recorder.NewAdmin(s.Tracker, s.Store, s.Folders, publisher)
	return nil
}

// Close releases every opened component, event bus first so queued
// events are still delivered.
func (s *Services) Close() error {
	if s.Bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), busShutdownTimeout)
		if err := s.Bus.Shutdown(ctx); err != nil {
			s.log.Warn("event bus shutdown incomplete", logger.Error(err))
		}
		cancel()
	}
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			s.log.Warn("failed to close storage", logger.Error(err))
		}
	}
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
