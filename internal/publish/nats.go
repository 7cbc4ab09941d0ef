package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "provstore.events"

// NATSPublisher publishes event messages on core NATS subjects of the form
// <prefix>.<kind>, e.g. "provstore.events.creation".
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string

	mu     sync.Mutex
	closed bool
}

// NATSOptions configures a NATS connection.
type NATSOptions struct {
	URL           string
	SubjectPrefix string
	Name          string
	Timeout       time.Duration
}

// ConnectNATS dials the server and returns a publisher.
func ConnectNATS(opts NATSOptions) (*NATSPublisher, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("connect to NATS: empty URL")
	}
	name := opts.Name
	if name == "" {
		name = "provstore"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	nc, err := nats.Connect(opts.URL,
		nats.Name(name),
		nats.Timeout(timeout),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc, prefix: normalizePrefix(opts.SubjectPrefix)}, nil
}

// Subject returns the subject a message of the given kind is published on.
func (p *NATSPublisher) Subject(kind string) string {
	return subjectFor(p.prefix, kind)
}

// Publish sends msg. NATS publish does not take a context, so cancellation
// is checked before the call.
func (p *NATSPublisher) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return fmt.Errorf("publish %s: %w", msg.EventID, nats.ErrConnectionClosed)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := p.nc.Publish(p.Subject(msg.Kind), data); err != nil {
		return fmt.Errorf("publish %s: %w", msg.EventID, err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if p.nc == nil {
		return nil
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return DefaultSubjectPrefix
	}
	return prefix
}

func subjectFor(prefix, kind string) string {
	if kind == "" {
		kind = "unknown"
	}
	return prefix + "." + kind
}
