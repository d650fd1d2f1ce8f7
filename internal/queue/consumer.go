package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartConsumers connects to RabbitMQ and consumes both application
// queues: confirmed bookings are appended to logs/booking.log, and
// payment alerts to logs/payment-alerts.log so operators have a durable
// trail of every refund failure.  The function runs a reconnect loop
// with exponential backoff and never returns under normal operation;
// run it in its own goroutine.
func StartConsumers() {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("queue-consumer: dial failed: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn); err != nil {
			log.Printf("queue-consumer: consume loop ended: %v; reconnecting", err)
			_ = conn.Close()
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("queue-consumer: set QoS failed: %v", err)
	}

	for _, name := range []string{bookingConfirmedQueue, paymentAlertQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	bookings, err := ch.Consume(bookingConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", bookingConfirmedQueue, err)
	}
	alerts, err := ch.Consume(paymentAlertQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", paymentAlertQueue, err)
	}

	for {
		select {
		case d, ok := <-bookings:
			if !ok {
				return errors.New("booking deliveries channel closed")
			}
			ackOrReject(d, handleBookingConfirmed(d.Body))
		case d, ok := <-alerts:
			if !ok {
				return errors.New("alert deliveries channel closed")
			}
			ackOrReject(d, handlePaymentAlert(d.Body))
		}
	}
}

func ackOrReject(d amqp.Delivery, err error) {
	if err != nil {
		log.Printf("queue-consumer: handle message failed: %v", err)
		_ = d.Nack(false, false) // do not requeue, avoids tight loops
		return
	}
	_ = d.Ack(false)
}

func handleBookingConfirmed(body []byte) error {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	user := "guest"
	if ev.UserID != nil {
		user = fmt.Sprintf("%d", *ev.UserID)
	}
	line := fmt.Sprintf("[%s] Booking confirmed | booking_id=%d | venue_id=%s | user=%s | date=%s | slot=%s-%s | guests=%d | total=%d | method=%s\n",
		ev.ConfirmedAt, ev.BookingID, ev.VenueID, user, ev.BookingDate, ev.StartTime, ev.EndTime, ev.GuestCount, ev.TotalPrice, ev.PaymentMethod)
	return appendLog("booking.log", line)
}

func handlePaymentAlert(body []byte) error {
	var ev PaymentAlertEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] PAYMENT ALERT | intent=%s | cause=%q | refund_error=%q | manual intervention required\n",
		ev.OccurredAt, ev.PaymentIntentID, ev.Cause, ev.RefundError)
	return appendLog("payment-alerts.log", line)
}

func appendLog(name, line string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
