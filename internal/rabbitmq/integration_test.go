package rabbitmq

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/subbers/internal/models"
)

// amqpURI возвращает адрес брокера: TEST_RABBITMQ_URL или контейнер testcontainers.
func amqpURI(ctx context.Context, t *testing.T) string {
	t.Helper()
	if testing.Short() || os.Getenv("SKIP_RABBITMQ_TESTS") == "true" {
		t.Skip("skipping RabbitMQ integration test")
	}
	if url := os.Getenv("TEST_RABBITMQ_URL"); url != "" {
		return url
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3-management",
			ExposedPorts: []string{"5672/tcp"},
			Env: map[string]string{
				"RABBITMQ_DEFAULT_USER": "guest",
				"RABBITMQ_DEFAULT_PASS": "guest",
			},
			WaitingFor: wait.ForListeningPort("5672/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate rabbitmq container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())
}

func TestIntegration_PublishAndConsumeReminder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	conn, err := Connect(ctx, amqpURI(ctx, t), 5, time.Second)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	ch, err := SetupChannel(conn, ReminderQueues())
	require.NoError(t, err)
	defer func() { _ = ch.Close() }()

	q, err := ch.QueueInspect(ReminderQueue)
	require.NoError(t, err)
	assert.Equal(t, ReminderQueue, q.Name)

	received := make(chan []byte, 1)
	err = ConsumerMessage(ctx, ch, ReminderQueue, newNoopLogger(), func(_ context.Context, body []byte) error {
		received <- body
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, NewPublisher(ch).Notify(ctx, models.Reminder{EventID: "rec1", Title: "Weekly live"}))

	select {
	case body := <-received:
		assert.Contains(t, string(body), `"event_id":"rec1"`)
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for reminder")
	}
}
