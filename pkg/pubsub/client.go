// Package pubsub wraps the Pub/Sub v2 client used by the outbox publisher.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/relacksation-backend/pkg/config"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errTopicRequired     = errors.New("pubsub bookings topic is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// Client holds one Publisher per topic; handles are created lazily and
// stopped on Close so buffered messages are flushed.
type Client struct {
	inner   *gcppubsub.Client
	project string
	topics  []string

	mu         sync.Mutex
	publishers map[string]*gcppubsub.Publisher
}

// NewClient connects to Pub/Sub and fails fast when a configured topic is
// missing.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errProjectIDRequired
	}
	topics := configuredTopics(cfg)
	if len(topics) == 0 {
		return nil, errTopicRequired
	}

	inner, err := gcppubsub.NewClient(ctx, project, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c := &Client{
		inner:      inner,
		project:    project,
		topics:     topics,
		publishers: map[string]*gcppubsub.Publisher{},
	}
	if err := c.Ping(ctx); err != nil {
		_ = inner.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"topics": topics}), "pubsub client initialized")
	}
	return c, nil
}

// configuredTopics returns the bookings topic first, then the inventory
// topic when it is distinct. Blank bookings topic yields nothing.
func configuredTopics(cfg config.PubSubConfig) []string {
	bookings := strings.TrimSpace(cfg.BookingsTopic)
	if bookings == "" {
		return nil
	}
	topics := []string{bookings}
	if inv := strings.TrimSpace(cfg.InventoryTopic); inv != "" && !slices.Contains(topics, inv) {
		topics = append(topics, inv)
	}
	return topics
}

// clientOptions prefers inline JSON credentials over a key file; with
// neither set the client falls back to application default credentials.
func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	if raw := strings.TrimSpace(gcp.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

// Ping checks that every configured topic exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.inner == nil {
		return errNotInitialized
	}
	for _, topic := range c.topics {
		if err := c.topicExists(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) topicExists(ctx context.Context, topic string) error {
	name := topicResourceName(c.project, topic)
	if name == "" {
		return fmt.Errorf("topic %q not configured", topic)
	}
	_, err := c.inner.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: name})
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("topic %q does not exist", topic)
	default:
		return fmt.Errorf("checking topic %q: %w", topic, err)
	}
}

// Publisher returns the shared handle for a topic ID or full resource name.
func (c *Client) Publisher(topic string) *gcppubsub.Publisher {
	if c == nil || c.inner == nil {
		return nil
	}
	name := topicResourceName(c.project, topic)
	if name == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.publishers[name]; ok {
		return p
	}
	p := c.inner.Publisher(name)
	c.publishers[name] = p
	return p
}

// Close flushes open publishers and releases the client.
func (c *Client) Close() error {
	if c == nil || c.inner == nil {
		return nil
	}
	c.mu.Lock()
	for name, p := range c.publishers {
		p.Stop()
		delete(c.publishers, name)
	}
	c.mu.Unlock()
	return c.inner.Close()
}

func topicResourceName(project, topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ""
	}
	if strings.HasPrefix(topic, "projects/") && strings.Contains(topic, "/topics/") {
		return topic
	}
	project = strings.TrimSpace(project)
	if project == "" {
		return ""
	}
	return "projects/" + project + "/topics/" + topic
}
