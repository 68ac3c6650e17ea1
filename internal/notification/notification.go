// Package notification sends human-readable messages through shoutrrr
// service URLs when a dialect completes or is wiped.
package notification

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/events"
	"github.com/Ridwan414/shobdotori/internal/logger"
)

const defaultTimeout = 10 * time.Second

// Sender delivers a titled message.
type Sender interface {
	Send(ctx context.Context, title, message string) error
}

// ShoutrrrSender sends to every configured shoutrrr URL.
type ShoutrrrSender struct {
	urls   []string
	sender *router.ServiceRouter
}

// NewShoutrrrSender validates urls and builds one router for all of them.
func NewShoutrrrSender(urls []string, timeout time.Duration) (*ShoutrrrSender, error) {
	if len(urls) == 0 {
		return nil, notificationError(fmt.Errorf("at least one URL is required"))
	}
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		// shoutrrr errors can echo the URL, which carries tokens
		return nil, notificationError(fmt.Errorf("invalid notification URL: %s", errors.ScrubMessage(err.Error())))
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	sender.Timeout = timeout
	sender.SetLogger(log.New(io.Discard, "", 0))

	return &ShoutrrrSender{urls: slices.Clone(urls), sender: sender}, nil
}

// Send delivers message to all services and returns the first failure.
func (s *ShoutrrrSender) Send(ctx context.Context, title, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := stypes.Params{}
	if title != "" {
		params.SetTitle(title)
	}
	for _, err := range s.sender.Send(message, &params) {
		if err != nil {
			return notificationError(fmt.Errorf("send failed: %s", errors.ScrubMessage(err.Error())))
		}
	}
	return nil
}

// Notifier is an events.Consumer turning completion and wipe events into messages.
type Notifier struct {
	sender  Sender
	timeout time.Duration
	log     logger.Logger
}

// New creates a notifier for settings, or nil when notifications are disabled.
func New(settings *conf.NotificationSettings) (*Notifier, error) {
	if !settings.Enabled {
		return nil, nil
	}
	sender, err := NewShoutrrrSender(settings.URLs, settings.Timeout)
	if err != nil {
		return nil, err
	}
	return NewNotifier(sender, settings.Timeout), nil
}

// NewNotifier creates a notifier over sender.
func NewNotifier(sender Sender, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Notifier{sender: sender, timeout: timeout, log: logger.Global().Module("notification")}
}

// Name implements events.Consumer.
func (n *Notifier) Name() string { return "notification" }

// ProcessEvent implements events.Consumer. Only completion and reset events produce messages.
func (n *Notifier) ProcessEvent(event events.ProgressEvent) error {
	title, message, ok := Render(event)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	if err := n.sender.Send(ctx, title, message); err != nil {
		return err
	}
	n.log.Info("notification sent",
		logger.String("type", string(event.Type)),
		logger.String("dialect", event.Dialect))
	return nil
}

// Render formats event, reporting false for events that are not notified.
func Render(event events.ProgressEvent) (title, message string, ok bool) {
	switch event.Type {
	case events.DialectCompleted:
		return fmt.Sprintf("Dialect %s completed", event.Dialect),
			fmt.Sprintf("All %d sentences of %s have been recorded.", event.Total, event.Dialect),
			true
	case events.DialectReset:
		msg := fmt.Sprintf("Dialect %s was reset; %d sentences are open for recording.", event.Dialect, event.Total)
		if deleted, found := event.Details["deletedFiles"]; found {
			msg += fmt.Sprintf(" Deleted files: %v, failed: %v.", deleted, event.Details["failedFiles"])
		}
		return fmt.Sprintf("Dialect %s reset", event.Dialect), msg, true
	default:
		return "", "", false
	}
}

func notificationError(err error) error {
	return errors.New(err).
		Component("notification").
		Category(errors.CategoryNotification).
		Build()
}
