package amqp

import (
	"errors"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// ErrChannelClosed is returned by ConsumeLedgerExports when the broker closes
// the delivery channel.
var ErrChannelClosed = errors.New("message channel closed")

const (
	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second
)

// Backoff returns the wait before reconnect attempt n: 1s doubled per attempt,
// capped at 30s.
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := baseBackoff << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// IsConnectionError reports whether err means the broker connection is gone
// and a reconnect is worth trying.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrChannelClosed) || errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection closed", "connection reset", "eof", "broken pipe", "use of closed network connection"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
