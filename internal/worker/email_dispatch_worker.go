package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"lireddit/internal/model"
	"lireddit/internal/platform/rabbitmq"
)

type EmailSender interface {
	Send(ctx context.Context, email model.Email) error
}

// EmailDispatchWorker drains the outbound email queue. Delivery failures are
// logged and the message dropped; nothing upstream waits on the result.
type EmailDispatchWorker struct {
	conn      *amqp.Connection
	sender    EmailSender
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEmailDispatchWorker(conn *amqp.Connection, sender EmailSender, queueName string) *EmailDispatchWorker {
	return &EmailDispatchWorker{
		conn:      conn,
		sender:    sender,
		queueName: queueName,
	}
}

func (w *EmailDispatchWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					log.Printf("email worker: %v", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *EmailDispatchWorker) handle(ctx context.Context, body []byte) error {
	var email model.Email
	if err := json.Unmarshal(body, &email); err != nil {
		return fmt.Errorf("decode email failed: %w", err)
	}
	if email.To == "" {
		return fmt.Errorf("email without recipient")
	}
	return w.sender.Send(ctx, email)
}

func (w *EmailDispatchWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
