package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"

	"github.com/pyrooka/mail2mp3/dto"
	"github.com/pyrooka/mail2mp3/internal/logger"
	"github.com/pyrooka/mail2mp3/internal/tracing"
)

const (
	ExchangeMail2MP3 = "mail2mp3-direct"

	QueueJobOutcomes = "mail2mp3-job-outcomes"

	RoutingKeyJobOutcome = "mail2mp3-job-outcome"

	DefaultPublishTimeout = 5 * time.Second
)

// RabbitMQPublisher emits job outcome events. It is an optional
// collaborator: the pipeline runs unchanged without it.
type RabbitMQPublisher struct {
	connection     *amqp091.Connection
	publishChannel *amqp091.Channel
	publishMutex   sync.Mutex
	url            string
	logger         logger.Logger
	publishTimeout time.Duration
}

func NewRabbitMQPublisher(rabbitmqURL string, log logger.Logger) (*RabbitMQPublisher, error) {
	publisher := &RabbitMQPublisher{
		url:            rabbitmqURL,
		logger:         log,
		publishTimeout: DefaultPublishTimeout,
	}

	if err := publisher.connect(); err != nil {
		return nil, err
	}

	return publisher, nil
}

func (r *RabbitMQPublisher) connect() error {
	conn, err := amqp091.Dial(r.url)
	if err != nil {
		return errors.Wrap(err, "cannot connect to RabbitMQ")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "cannot open RabbitMQ channel")
	}

	if err := ch.ExchangeDeclare(ExchangeMail2MP3, "direct", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "cannot declare exchange")
	}

	if _, err := ch.QueueDeclare(QueueJobOutcomes, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "cannot declare queue")
	}

	if err := ch.QueueBind(QueueJobOutcomes, RoutingKeyJobOutcome, ExchangeMail2MP3, false, nil); err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "cannot bind queue")
	}

	r.connection = conn
	r.publishChannel = ch
	return nil
}

// PublishJobOutcome sends one outcome event. Failures are returned for the
// caller to log; they never affect the job itself.
func (r *RabbitMQPublisher) PublishJobOutcome(ctx context.Context, event dto.JobOutcomeEvent) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RabbitMQPublisher.PublishJobOutcome")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	body, err := json.Marshal(event)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "cannot marshal outcome event")
	}

	publishCtx, cancel := context.WithTimeout(ctx, r.publishTimeout)
	defer cancel()

	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	err = r.publishChannel.PublishWithContext(
		publishCtx,
		ExchangeMail2MP3,
		RoutingKeyJobOutcome,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "cannot publish outcome event")
	}

	return nil
}

func (r *RabbitMQPublisher) Close() error {
	if r.publishChannel != nil {
		_ = r.publishChannel.Close()
	}
	if r.connection != nil {
		return r.connection.Close()
	}
	return nil
}
