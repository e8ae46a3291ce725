// =============================================================================
// Manifest to Scale - Result Notifications
// =============================================================================
//
// This module announces the outcome of each converted manifest. A successful
// conversion carries the generated Scale files as attachments and a delivery
// time: the interface files are due at 05:00 Perth time on the manifest
// date, and are delivered immediately when that time has passed.
//
// NOTIFIERS:
//   - LogNotifier:  writes a summary line to the logger
//   - StanNotifier: publishes the message as JSON to NATS Streaming
//   - Multi:        fans a message out to several notifiers
//
// =============================================================================

package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BryceStandley/ManifestToScale/internal/logging"
)

// DeliveryZone is the warehouse time zone used for delivery times.
const DeliveryZone = "Australia/Perth"

// DeliveryHour is the local hour interface files are due on the manifest date.
const DeliveryHour = 5

// Attachment is a generated file carried by a Message.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// Message describes the outcome of one manifest.
type Message struct {
	ID           string       `json:"id"`
	Subject      string       `json:"subject"`
	Filename     string       `json:"filename"`
	Status       string       `json:"status"`
	Company      string       `json:"company,omitempty"`
	ManifestDate string       `json:"manifestDate,omitempty"`
	Lines        []string     `json:"lines,omitempty"`
	DeliverAt    time.Time    `json:"deliverAt,omitempty"`
	Attachments  []Attachment `json:"attachments,omitempty"`
}

// Scheduled reports whether delivery should wait until DeliverAt.
func (m Message) Scheduled(now time.Time) bool {
	return !m.DeliverAt.IsZero() && now.Before(m.DeliverAt)
}

// Notifier delivers messages.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// SuccessSubject returns the subject line for a converted manifest.
func SuccessSubject(companyName string, manifestDate time.Time) string {
	return fmt.Sprintf("%s Scale Files - %s", companyName, manifestDate.Format("02-01-2006"))
}

// FailureSubject returns the subject line for a manifest that failed.
func FailureSubject(filename string) string {
	return "Manifest Processing Error - " + filename
}

// DeliveryTime returns 05:00 in the delivery zone on the manifest's calendar
// date. If the zone database is unavailable the time is computed in UTC+8,
// Perth's fixed offset.
func DeliveryTime(manifestDate time.Time) time.Time {
	loc, err := time.LoadLocation(DeliveryZone)
	if err != nil {
		loc = time.FixedZone("AWST", 8*60*60)
	}
	y, m, d := manifestDate.Date()
	return time.Date(y, m, d, DeliveryHour, 0, 0, 0, loc)
}

// =============================================================================
// NOTIFIERS
// =============================================================================

// LogNotifier writes one summary line per message.
type LogNotifier struct {
	Logger logging.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, msg Message) error {
	logger := n.Logger
	if logger == nil {
		return nil
	}
	if msg.Scheduled(time.Now()) {
		logger.Info("%s [%s] %d attachment(s), deliver at %s", msg.Subject, msg.Status, len(msg.Attachments), msg.DeliverAt.Format(time.RFC1123Z))
		return nil
	}
	logger.Info("%s [%s] %d attachment(s)", msg.Subject, msg.Status, len(msg.Attachments))
	return nil
}

// Multi delivers a message to every notifier and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
