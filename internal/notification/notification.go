// Package notification delivers credit event notifications to submitters.
// Delivery is fire-and-forget: failures are logged, never fatal.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/pkallio/photoguard-go/internal/conf"
	"github.com/pkallio/photoguard-go/internal/errors"
	"github.com/pkallio/photoguard-go/internal/logging"
)

// Service sends push notifications through shoutrrr service URLs.
type Service struct {
	enabled bool
	sender  *router.ServiceRouter
	log     *slog.Logger
}

// NewService builds the notification service. With notifications disabled or
// no URLs configured it returns a service whose sends are silent no-ops.
func NewService(settings *conf.NotificationSettings) (*Service, error) {
	s := &Service{
		log: logging.ForService("notification"),
	}

	if !settings.Enabled || len(settings.URLs) == 0 {
		return s, nil
	}

	sender, err := shoutrrr.CreateSender(settings.URLs...)
	if err != nil {
		return nil, errors.Newf("creating notification sender: %v", err).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}

	s.enabled = true
	s.sender = sender
	return s, nil
}

// SendCreditAwarded notifies a submitter that a credit was returned for a
// rejected entry. Errors are logged and swallowed; a failed notification
// never blocks reconciliation.
func (s *Service) SendCreditAwarded(_ context.Context, userID, entryID uint, balance int) {
	if !s.enabled {
		return
	}

	body := fmt.Sprintf(
		"Your submission #%d was not accepted into the contest. The photo credit you paid has been returned to your account (balance: %d).",
		entryID, balance)
	params := stypes.Params{"title": "Photo credit returned"}

	for _, err := range s.sender.Send(body, &params) {
		if err != nil {
			s.log.Error("credit notification delivery failed",
				"user_id", userID, "entry_id", entryID, "error", err)
		}
	}
}
