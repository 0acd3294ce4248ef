package queue

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// PubSubConfig names the GCP resources backing each lane. Topics and
// subscriptions must already exist.
type PubSubConfig struct {
	ProjectID     string
	Topics        map[Lane]string
	Subscriptions map[Lane]string
}

// PubSubProvider implements Provider on Google Cloud Pub/Sub. It
// authenticates with Application Default Credentials.
type PubSubProvider struct {
	client *pubsub.Client
	cfg    PubSubConfig
	logger *zap.Logger
}

// NewPubSubProvider connects a client and verifies the configured topics.
func NewPubSubProvider(ctx context.Context, cfg PubSubConfig, logger *zap.Logger) (*PubSubProvider, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("pubsub project id is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	for lane, topicID := range cfg.Topics {
		ok, err := client.Topic(topicID).Exists(ctx)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("check topic %q: %w", topicID, err)
		}
		if !ok {
			_ = client.Close()
			return nil, fmt.Errorf("pubsub topic %q for lane %s does not exist", topicID, lane)
		}
	}
	return &PubSubProvider{client: client, cfg: cfg, logger: logger}, nil
}

// Publish routes the task to its lane's topic and waits for the broker ack.
func (p *PubSubProvider) Publish(ctx context.Context, task Task) error {
	lane := LaneFor(task.Name)
	topicID, ok := p.cfg.Topics[lane]
	if !ok {
		return fmt.Errorf("no topic configured for lane %s", lane)
	}
	data, err := task.Encode()
	if err != nil {
		return err
	}
	res := p.client.Topic(topicID).Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"task": task.Name},
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("publish task %s: %w", task.Name, err)
	}
	p.logger.Debug("published task", zap.String("task", task.Name), zap.String("lane", string(lane)))
	return nil
}

// Subscribe pulls from the lane's subscription until ctx is canceled. One
// message is held in flight at a time; the message is acked only after the
// handler succeeds, otherwise nacked for redelivery.
func (p *PubSubProvider) Subscribe(ctx context.Context, lane Lane, handler Handler) error {
	subID, ok := p.cfg.Subscriptions[lane]
	if !ok {
		return fmt.Errorf("no subscription configured for lane %s", lane)
	}
	sub := p.client.Subscription(subID)
	sub.ReceiveSettings.MaxOutstandingMessages = 1
	sub.ReceiveSettings.NumGoroutines = 1

	err := sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		task, err := DecodeTask(msg.Data)
		if err != nil {
			p.logger.Error("dropping undecodable message", zap.Error(err))
			msg.Ack()
			return
		}
		if err := handler(ctx, task); err != nil {
			p.logger.Warn("task failed, nacking for redelivery",
				zap.String("task", task.Name), zap.Error(err))
			msg.Nack()
			return
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("receive on %s: %w", subID, err)
	}
	return nil
}

// Close releases the underlying client connection.
func (p *PubSubProvider) Close() error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
