package services

import (
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

// Notifier sends push notifications to users that registered a device token.
type Notifier struct {
	client *apns2.Client
	topic  string
}

// NewNotifier creates an APNs notifier from a p12 certificate
func NewNotifier(certPath, certPassword, topic string, production bool) (*Notifier, error) {
	cert, err := certificate.FromP12File(certPath, certPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs certificate: %w", err)
	}

	client := apns2.NewClient(cert)
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &Notifier{
		client: client,
		topic:  topic,
	}, nil
}

// Notify sends a single alert to a device token
func (n *Notifier) Notify(deviceToken, title, body string) error {
	p := payload.NewPayload().
		AlertTitle(title).
		AlertBody(body).
		Sound("default")

	res, err := n.client.Push(&apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       n.topic,
		Payload:     p,
	})
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("notification rejected: %s", res.Reason)
	}
	return nil
}
