// Package integration delivers board events to per-project webhook
// registrations. Delivery is fire-and-forget with a bounded timeout: it runs
// after the primary persistence and broadcast sequence, failures are logged
// and never retried inline, and the triggering mutation is never affected.
package integration

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/worknest/worknest/internal/logger"
	"github.com/worknest/worknest/internal/store"
)

const deliveryTimeout = 5 * time.Second

// Envelope is the JSON body POSTed to registered webhooks.
type Envelope struct {
	Event     string      `json:"event"`
	ProjectID string      `json:"projectId"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Dispatcher fans board events out to a project's registered webhooks.
type Dispatcher struct {
	webhooks store.WebhookStore
	client   *http.Client
	log      *logger.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(webhooks store.WebhookStore, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		webhooks: webhooks,
		client:   &http.Client{Timeout: deliveryTimeout},
		log:      log,
	}
}

// Notify posts the event to every webhook registered for the project. It
// returns immediately; deliveries run in the background.
func (d *Dispatcher) Notify(projectID, event string, data interface{}) {
	if d == nil {
		return
	}
	go d.deliverAll(projectID, event, data)
}

func (d *Dispatcher) deliverAll(projectID, event string, data interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	hooks, err := d.webhooks.ListWebhooks(ctx, projectID)
	if err != nil {
		d.log.Warn("webhook: list for project %s: %v", projectID, err)
		return
	}
	if len(hooks) == 0 {
		return
	}

	body, err := json.Marshal(Envelope{
		Event:     event,
		ProjectID: projectID,
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		d.log.Warn("webhook: marshal %s event: %v", event, err)
		return
	}

	for _, hook := range hooks {
		if err := d.deliver(hook.URL, hook.Secret, body); err != nil {
			d.log.Warn("webhook: deliver %s to %s: %v", event, hook.URL, err)
		}
	}
}

func (d *Dispatcher) deliver(url, secret string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-WorkNest-Signature", sign(secret, body))
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
