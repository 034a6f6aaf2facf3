package notificationconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"policyflow/internal/shared/contracts"
	"policyflow/internal/shared/logger"
	"policyflow/internal/shared/rabbitmq"
)

// ConsumeForever continuously (re)creates a channel and consumes from the
// durable notifications queue until ctx is cancelled. Messages are processed
// sequentially; prefetch bounds how many deliveries sit unacked at once.
func ConsumeForever(ctx context.Context, rmq *rabbitmq.Client, processor *Processor, logger *logger.Logger, prefetch int) {
	const (
		retryBaseDelay = time.Second
		retryMaxDelay  = 30 * time.Second
	)

	backoff := retryBaseDelay
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ch, err := rmq.NewConsumerChannel(prefetch)
		if err != nil {
			logger.Error(ctx, "rabbitmq_channel_open_failed", "Failed to open consumer channel", err)
			if !sleepWithContext(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, retryMaxDelay)
			continue
		}

		backoff = retryBaseDelay

		deliveries, err := ch.Consume(rabbitmq.QueueNotifications, "", false, false, false, false, nil)
		if err != nil {
			_ = ch.Close()
			logger.Error(ctx, "rabbitmq_consume_failed", "Failed to start consuming notifications", err)
			if !sleepWithContext(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, retryMaxDelay)
			continue
		}

		closed := ch.NotifyClose(make(chan *amqp.Error, 1))

	consumption:
		for {
			select {
			case <-ctx.Done():
				// stop consuming; unacked in-flight messages redeliver,
				// which is safe because processing is idempotent
				_ = ch.Close()
				return

			case amqpErr := <-closed:
				if amqpErr != nil {
					logger.Error(ctx, "rabbitmq_channel_closed", "Consumer channel closed", amqpErr)
				} else {
					logger.Error(ctx, "rabbitmq_channel_closed", "Consumer channel closed", errors.New("unknown channel close"))
				}
				break consumption

			case d, ok := <-deliveries:
				if !ok {
					logger.Error(ctx, "rabbitmq_deliveries_closed", "Deliveries channel closed", errors.New("deliveries channel closed"))
					_ = ch.Close()
					break consumption
				}

				HandleDelivery(ctx, logger, processor, d)
			}
		}

		// small delay before recreating the channel (avoid hot loop)
		if !sleepWithContext(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, retryMaxDelay)
	}
}

// HandleDelivery decodes, dispatches, and acks/nacks a single message.
//
// Outcomes follow the at-least-once contract: unparseable bodies are poison
// and go straight to the DLX, unknown event types are acked for forward
// compatibility, transient processing failures requeue via the broker.
func HandleDelivery(ctx context.Context, logger *logger.Logger, processor *Processor, d amqp.Delivery) {
	var envelope contracts.Envelope
	if err := json.Unmarshal(d.Body, &envelope); err != nil || envelope.Type == "" {
		if err == nil {
			err = errors.New("missing event type")
		}
		logger.Error(ctx, "message_decode_failed", "Poison message, routing to dead letter", err)
		_ = d.Nack(false, false) // DLX, never retried as-is
		return
	}

	if envelope.Type != contracts.EventPolicyIssued {
		logger.Warn(ctx, "event_type_unknown", "Acknowledging unhandled event type", map[string]any{
			"event_type": envelope.Type,
		})
		_ = d.Ack(false)
		return
	}

	var msg contracts.PolicyIssuedMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		logger.Error(ctx, "message_decode_failed", "Poison message, routing to dead letter", err)
		_ = d.Nack(false, false)
		return
	}

	err := processor.ProcessPolicyIssued(ctx, msg)
	if err == nil {
		// delete only after the side effect and ledger write committed
		if err := d.Ack(false); err != nil {
			logger.Error(ctx, "rabbitmq_ack_failed", "Failed to ack notification message", err)
		}
		return
	}

	if IsRetryable(err) {
		logger.Error(ctx, "processing_retryable", "Processing failed; requeuing for redelivery", err)
		_ = d.Nack(false, true)
		return
	}

	logger.Error(ctx, "processing_failed", "Processing failed; routing to dead letter", err)
	_ = d.Nack(false, false)
}

// sleepWithContext sleeps for the given duration or returns early if ctx is done.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// nextBackoff calculates the next backoff duration with exponential growth capped at max.
func nextBackoff(curr, cap time.Duration) time.Duration {
	n := curr * 2
	if n > cap {
		return cap
	}
	return n
}
