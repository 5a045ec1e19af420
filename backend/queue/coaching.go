package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/storage/cache"
)

// CoachingQueueName is the RabbitMQ queue carrying daily coaching jobs.
const CoachingQueueName = "coachingQueue"

// JobHandler runs one coaching job.
type JobHandler interface {
	Handle(ctx context.Context, job models.CoachingJob) error
}

// CoachingProducerFactory is a struct for creating new CoachingProducer instances.
type CoachingProducerFactory struct{}

// CoachingConsumerFactory creates CoachingConsumer instances sharing one
// dedupe cache and job handler.
type CoachingConsumerFactory struct {
	Cache   cache.CacheInterface
	Handler JobHandler
}

// CoachingProducer publishes coaching jobs onto the queue.
type CoachingProducer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   *amqp.Queue
}

// CoachingConsumer runs coaching jobs read from the queue. Jobs already
// marked done in the cache are acknowledged without running again.
type CoachingConsumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   *amqp.Queue
	cache   cache.CacheInterface
	handler JobHandler
}

func (f *CoachingProducerFactory) CreateProducer(conn *amqp.Connection, ch *amqp.Channel, queue *amqp.Queue) (Producer, error) {
	return &CoachingProducer{
		conn:    conn,
		channel: ch,
		queue:   queue,
	}, nil
}

func (f *CoachingConsumerFactory) CreateConsumer(conn *amqp.Connection, ch *amqp.Channel, queue *amqp.Queue) (Consumer, error) {
	if f.Cache == nil || f.Handler == nil {
		return nil, errors.New("coaching consumer needs a cache and a handler")
	}
	return &CoachingConsumer{
		conn:    conn,
		channel: ch,
		queue:   queue,
		cache:   f.Cache,
		handler: f.Handler,
	}, nil
}

// Publish sends a message body to the queue.
func (cp *CoachingProducer) Publish(body []byte) error {
	err := cp.channel.Publish(
		"",            // exchange
		cp.queue.Name, // routing key
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}

	return nil
}

// Consume reads deliveries until ctx ends or the channel closes.
func (cc *CoachingConsumer) Consume(ctx context.Context) error {
	msgs, err := cc.channel.Consume(
		cc.queue.Name,
		"",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			processDelivery(ctx, d.Body, d.Redelivered, d, cc.cache, cc.handler)
		case <-ctx.Done():
			return nil
		}
	}
}

// acknowledger is the part of amqp.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func jobKey(id string) string {
	return "coaching_job_" + id
}

// processDelivery runs one delivery. A failed job is requeued once; a job
// that fails again on redelivery, or a malformed message, is dropped.
func processDelivery(ctx context.Context, body []byte, redelivered bool, d acknowledger, c cache.CacheInterface, handler JobHandler) {
	job := models.CoachingJob{}
	if err := json.Unmarshal(body, &job); err != nil || job.ID == "" || job.UserID == "" {
		log.Printf("dropping malformed coaching job: %s", body)
		d.Nack(false, false)
		return
	}

	// Fetch processed state from cache
	var processed bool
	if err := c.Get(ctx, jobKey(job.ID), &processed); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("error checking cache: %v", err)
		d.Nack(false, true)
		return
	}
	if processed {
		d.Ack(false)
		return
	}

	if err := handler.Handle(ctx, job); err != nil {
		log.Printf("coaching job %s for user %s failed: %v", job.ID, job.UserID, err)
		d.Nack(false, !redelivered)
		return
	}

	d.Ack(false)
	if err := c.Set(ctx, jobKey(job.ID), true, 0); err != nil {
		log.Printf("failed to set key in cache: %v", err)
	}
}

// BuildCoachingQueue connects to RabbitMQ and creates numProducers producers
// and numConsumers consumers on the coaching queue.
func BuildCoachingQueue(rabbitMQURL string, numProducers, numConsumers int, jobCache cache.CacheInterface, handler JobHandler) (*Queue, error) {
	prodFactories := make([]ProducerFactory, numProducers)
	for i := 0; i < numProducers; i++ {
		prodFactories[i] = &CoachingProducerFactory{}
	}

	consFactories := make([]ConsumerFactory, numConsumers)
	for i := 0; i < numConsumers; i++ {
		consFactories[i] = &CoachingConsumerFactory{Cache: jobCache, Handler: handler}
	}

	return InitQueue(rabbitMQURL, CoachingQueueName, prodFactories, consFactories)
}

// Dispatch serializes job and publishes it with the next producer. Jobs
// without an id get a fresh one.
func (q *Queue) Dispatch(ctx context.Context, job models.CoachingJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal coaching job: %w", err)
	}
	if err := q.publish(body); err != nil {
		return fmt.Errorf("failed to publish coaching job: %w", err)
	}
	return nil
}
