package daemon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/blogpress/internal/config"
	"git.home.luguber.info/inful/blogpress/internal/logfields"
)

// natsBridge connects the daemon to a NATS server: it subscribes to the
// trigger subject and announces completed publishes on the notify subject.
// Core NATS suffices; triggers are fire-and-forget and a missed one is
// repaired by the next scheduled republish.
type natsBridge struct {
	conn          *nats.Conn
	subject       string
	notifySubject string
	sub           *nats.Subscription
}

func newNATSBridge(cfg config.NATSConfig) (*natsBridge, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("blogpress-daemon"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("Connected to NATS",
		logfields.URL(cfg.URL),
		slog.String("subject", cfg.Subject))

	return &natsBridge{
		conn:          conn,
		subject:       cfg.Subject,
		notifySubject: cfg.NotifySubject,
	}, nil
}

// subscribe invokes handler with the branch identifier of each trigger
// message.
func (b *natsBridge) subscribe(handler func(branch string)) error {
	sub, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		handler(branchFromPayload(msg.Data))
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.subject, err)
	}
	b.sub = sub
	return nil
}

// branchFromPayload extracts the branch identifier from a trigger payload.
// The payload is the bare branch name with no schema around it; an empty
// payload means "use the configured branch".
func branchFromPayload(data []byte) string {
	return strings.TrimSpace(string(data))
}

// publishNotification is announced on the notify subject after each publish
// attempt that reached the hosting branch.
type publishNotification struct {
	Branch  string    `json:"branch"`
	Commit  string    `json:"commit,omitempty"`
	Skipped bool      `json:"skipped"`
	Outcome string    `json:"outcome"`
	Time    time.Time `json:"time"`
}

func (b *natsBridge) notify(n publishNotification) {
	if b.notifySubject == "" {
		return
	}
	data, err := json.Marshal(n)
	if err != nil {
		slog.Warn("Failed to marshal publish notification", logfields.Error(err))
		return
	}
	if err := b.conn.Publish(b.notifySubject, data); err != nil {
		slog.Warn("Failed to publish notification", logfields.Error(err))
	}
}

func (b *natsBridge) close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	if b.conn != nil {
		if err := b.conn.Drain(); err != nil {
			b.conn.Close()
		}
	}
}
