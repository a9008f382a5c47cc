// Package webhooks delivers optimization lifecycle events to an external
// HTTP endpoint, signed with a shared secret.
package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"fleetopt/internal/model"
)

type delivery struct {
	eventType string
	body      []byte
	attempts  int
}

// Notifier posts events as JSON to URL. Failed deliveries are retried
// with exponential backoff up to MaxAttempts; the queue is bounded and
// drops under sustained backpressure rather than stalling the planner.
type Notifier struct {
	URL         string
	Secret      string
	HTTP        *http.Client
	Log         zerolog.Logger
	MaxAttempts int
	Backoff     func(attempts int) time.Duration

	queue chan delivery
	stop  chan struct{}
}

func NewNotifier(url, secret string) *Notifier {
	return &Notifier{
		URL:         url,
		Secret:      secret,
		HTTP:        &http.Client{Timeout: 5 * time.Second},
		Log:         zerolog.Nop(),
		MaxAttempts: 10,
		Backoff:     nextBackoff,
		queue:       make(chan delivery, 256),
		stop:        make(chan struct{}),
	}
}

// Publish satisfies the planner's event sink. Never blocks.
func (n *Notifier) Publish(evt model.Event) {
	body, err := json.Marshal(evt)
	if err != nil {
		return
	}
	n.enqueue(delivery{eventType: evt.Type, body: body})
}

func (n *Notifier) enqueue(d delivery) {
	select {
	case n.queue <- d:
	default:
		n.Log.Warn().Str("component", "webhooks").Str("event", d.eventType).Msg("queue full, dropping delivery")
	}
}

func (n *Notifier) Start() {
	go func() {
		for {
			select {
			case <-n.stop:
				return
			case d := <-n.queue:
				n.deliver(d)
			}
		}
	}()
}

func (n *Notifier) Stop() { close(n.stop) }

func (n *Notifier) deliver(d delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(d.body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", d.eventType)
	if n.Secret != "" {
		req.Header.Set("X-Signature", SignHMAC(n.Secret, d.body))
	}

	resp, err := n.HTTP.Do(req)
	code := 0
	if err == nil {
		code = resp.StatusCode
		_ = resp.Body.Close()
		if code >= 200 && code < 300 {
			return
		}
	}

	d.attempts++
	if d.attempts >= n.MaxAttempts {
		n.Log.Error().Str("component", "webhooks").Str("event", d.eventType).Int("status", code).Err(err).Msg("delivery abandoned")
		return
	}
	wait := n.Backoff(d.attempts)
	n.Log.Warn().Str("component", "webhooks").Str("event", d.eventType).Int("status", code).Dur("retry_in", wait).Msg("delivery failed")
	time.AfterFunc(wait, func() {
		select {
		case <-n.stop:
		default:
			n.enqueue(d)
		}
	})
}

func nextBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 10 {
		attempts = 10
	}
	base := time.Second * time.Duration(1<<attempts)
	if base > time.Hour {
		base = time.Hour
	}
	return base
}

// SignHMAC returns lowercase hex of HMAC-SHA256 over body.
func SignHMAC(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC checks a received signature against the shared secret.
func VerifyHMAC(secret string, body []byte, provided string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	b, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}
	return hmac.Equal(mac.Sum(nil), b)
}
