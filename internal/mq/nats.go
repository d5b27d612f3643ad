package mq

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/ilng/roster/config"
)

var errNATSClosed = errors.New("nats client closed")

// NATSClient publishes and subscribes on core NATS subjects. The
// connection is set once by NewNATSClient and never replaced.
type NATSClient struct {
	nc     *nats.Conn
	closed atomic.Bool
}

// NewNATSClient connects to the servers in cfg.URL.
func NewNATSClient(cfg config.NATSConfig) (*NATSClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("nats url is required")
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("roster"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
				return
			}
			log.Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, err
	}
	return &NATSClient{nc: nc}, nil
}

// Publish sends data on the subject named channel. NATS has no server
// side message id, so the "id" attribute is echoed back when present.
func (n *NATSClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("nats channel is required")
	}
	if n.closed.Load() {
		return "", errNATSClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	msg := nats.NewMsg(channel)
	msg.Data = data
	for key, value := range attrs {
		msg.Header.Set(key, value)
	}
	if err := n.nc.PublishMsg(msg); err != nil {
		return "", err
	}

	id := attrs["id"]
	if id == "" {
		id = uuid.NewString()
	}
	return id, nil
}

// Subscribe delivers messages on channel to handler until ctx is done.
// Core NATS has no redelivery; handler errors are logged.
func (n *NATSClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("nats channel is required")
	}
	if n.closed.Load() {
		return errNATSClosed
	}

	msgs := make(chan *nats.Msg, 64)
	sub, err := n.nc.ChanSubscribe(channel, msgs)
	if err != nil {
		return err
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-msgs:
			message := Message{
				ID:         msg.Header.Get("id"),
				Data:       msg.Data,
				Attributes: natsHeaderToAttributes(msg.Header),
			}
			if err := handler(ctx, message); err != nil {
				log.WithError(err).WithField("subject", channel).Error("Failed to process message")
			}
		}
	}
}

// Close drains and closes the connection. Later calls are no-ops.
func (n *NATSClient) Close() error {
	if !n.closed.CompareAndSwap(false, true) || n.nc == nil {
		return nil
	}
	return n.nc.Drain()
}

func natsHeaderToAttributes(header nats.Header) map[string]string {
	if len(header) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(header))
	for key := range header {
		attrs[key] = header.Get(key)
	}
	return attrs
}
