package inttest

import (
	"context"
	"fmt"
	"testing"

	"github.com/docker/go-connections/nat"
	amqpgo "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

const amqpPort = "5672"
const natAMQPPort = amqpPort + "/tcp"

// SetupRabbitMQ creates a RabbitMQ container with an AMQP connection and channel ready to consume
// the commands published to it. The management UI is exposed so a paused test can be debugged.
func SetupRabbitMQ(t *testing.T) *AMQP {
	t.Helper()
	require := require.New(t)
	ctx := context.TODO()

	net, err := network.New(ctx)
	require.NoError(err, "failed setting up Docker network")
	t.Cleanup(func() {
		require.NoError(net.Remove(ctx), "failed to remove the Docker network")
	})

	container, err := NewRabbitMQ(ctx, WithNetwork(net.Name, "rabbitmq"))
	require.NoError(err, "failed setting up RabbitMQ")
	t.Cleanup(func() {
		require.NoError(container.Terminate(ctx), "failed to terminate RabbitMQ")
	})

	URI, err := container.AMQPURI(ctx)
	require.NoError(err, "failed to get RabbitMQ AMQP URI")
	conn, err := amqpgo.Dial(URI)
	require.NoError(err, "failed setting up AMQP connection")
	t.Cleanup(func() {
		_ = conn.Close()
	})
	channel, err := conn.Channel()
	require.NoError(err, "failed setting up AMQP channel")

	return &AMQP{
		URI:     URI,
		Conn:    conn,
		Channel: channel,
	}
}

// AMQP allows making requests to RabbitMQ via the low-level github.com/rabbitmq/amqp091-go library.
type AMQP struct {
	URI     string
	Conn    *amqpgo.Connection
	Channel *amqpgo.Channel
}

type rabbitmqContainer struct {
	testcontainers.Container
	user string
	pw   string
}

func (rc *rabbitmqContainer) AMQPURI(ctx context.Context) (string, error) {
	ip, err := rc.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := rc.MappedPort(ctx, nat.Port(natAMQPPort))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s", rc.user, rc.pw, ip, port.Port()), nil
}

type rabbitMQOptions struct {
	network      string
	networkAlias string
}

type rabbitMQOption func(*rabbitMQOptions)

// WithNetwork connects the RabbitMQ container to a specific network and gives it an alias with
// which you can reach it on this network.
func WithNetwork(name, alias string) rabbitMQOption {
	return func(options *rabbitMQOptions) {
		options.network = name
		options.networkAlias = alias
	}
}

// NewRabbitMQ creates a RabbitMQ container. The container will be listening and ready to accept
// connections using user and password guest.
func NewRabbitMQ(ctx context.Context, options ...rabbitMQOption) (*rabbitmqContainer, error) {
	opts := &rabbitMQOptions{}
	for _, o := range options {
		o(opts)
	}

	user := "guest"
	pw := "guest"
	req := testcontainers.ContainerRequest{
		Image: "bitnami/rabbitmq:3.13",
		Env: map[string]string{
			"RABBITMQ_USERNAME":                    user,
			"RABBITMQ_PASSWORD":                    pw,
			"RABBITMQ_MANAGEMENT_ALLOW_WEB_ACCESS": "true",
			"RABBITMQ_DISK_FREE_ABSOLUTE_LIMIT":    "100MB",
		},
		ExposedPorts: []string{natAMQPPort, "15672/tcp"},
		WaitingFor:   wait.ForLog("Time to start RabbitMQ").WithOccurrence(2),
	}
	if opts.network != "" {
		req.Networks = []string{opts.network}
		req.NetworkAliases = map[string][]string{
			opts.network: {opts.networkAlias},
		}
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	return &rabbitmqContainer{
		Container: container,
		user:      user,
		pw:        pw,
	}, nil
}
