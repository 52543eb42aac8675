//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/cris-mate/guardian-optix-sub004/internal/adapter/kafka"
	"github.com/cris-mate/guardian-optix-sub004/internal/config"
	"github.com/cris-mate/guardian-optix-sub004/internal/domain"
	"github.com/cris-mate/guardian-optix-sub004/internal/match"
	"github.com/cris-mate/guardian-optix-sub004/internal/observability"
	"github.com/cris-mate/guardian-optix-sub004/internal/pipeline"
)

const (
	testSourceTopic = "test-coverage-requests"
	testSinkTopic   = "test-ranked-assignments"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka broker in a container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func testConfig(broker, groupPrefix string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", groupPrefix, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func newTestTransformer(t *testing.T) pipeline.Transformer {
	t.Helper()
	scorer, err := domain.NewScorer(nil, domain.DefaultWeights(), discardLogger())
	require.NoError(t, err)
	matcher := match.NewMatcher(scorer, nil, discardLogger(), observability.NewMetricsForTesting())
	return pipeline.NewTransformer(matcher, discardLogger())
}

func makeCoverageRequest(shiftID uuid.UUID) domain.CoverageRequest {
	return domain.CoverageRequest{
		ShiftID: shiftID,
		Site: domain.Site{
			ID:                uuid.New(),
			Name:              "Victoria Coach Station",
			RequiredGuardType: domain.GuardStatic,
		},
		Candidates: []domain.Candidate{
			{
				ID:            uuid.MustParse("11111111-1111-1111-1111-111111111111"),
				Name:          "Static guard, valid licence",
				GuardType:     domain.GuardStatic,
				LicenceStatus: domain.LicenceValid,
			},
			{
				ID:            uuid.MustParse("22222222-2222-2222-2222-222222222222"),
				Name:          "CCTV operator, expired licence",
				GuardType:     domain.GuardCCTV,
				LicenceStatus: domain.LicenceExpired,
			},
		},
	}
}

// readAssignment reads a single ranked assignment from the sink topic.
func readAssignment(ctx context.Context, t *testing.T, consumer *kafkago.Reader) (domain.RankedAssignment, map[string]string) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var assignment domain.RankedAssignment
	require.NoError(t, json.Unmarshal(msg.Value, &assignment), "unmarshal sink message")
	return assignment, headers
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader and
// kafka.Writer correctly round-trip a coverage request through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "test-reader")

	shiftID := uuid.New()
	payload, err := json.Marshal(makeCoverageRequest(shiftID))
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(shiftID.String()),
		Value: payload,
	}))

	// Extract via kafka.Reader.
	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte(shiftID.String()), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	// Rank the request and load the assignment via kafka.Writer.
	out, err := newTestTransformer(t).Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputEvent{out}))

	// Read from the sink topic and verify headers + ranking.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	assignment, headers := readAssignment(ctx, t, consumer)
	assert.Equal(t, shiftID.String(), headers["shift_id"])
	_, err = time.Parse(time.RFC3339, headers["generated_at"])
	assert.NoError(t, err, "generated_at should be valid RFC3339")

	assert.Equal(t, shiftID, assignment.ShiftID)
	require.Len(t, assignment.Ranking, 2)
	assert.Equal(t, uuid.MustParse("11111111-1111-1111-1111-111111111111"), assignment.Ranking[0].CandidateID,
		"the matching static guard with a valid licence ranks first")
	assert.Greater(t, assignment.Ranking[0].Score, assignment.Ranking[1].Score)
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Transformer → Writer)
// with real Kafka, including a poison message that must be skipped.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "test-pipeline")

	const validRequests = 5
	shiftIDs := make(map[uuid.UUID]bool, validRequests)
	msgs := make([]kafkago.Message, 0, validRequests+1)
	msgs = append(msgs, kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")})
	for range validRequests {
		shiftID := uuid.New()
		shiftIDs[shiftID] = false
		payload, err := json.Marshal(makeCoverageRequest(shiftID))
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{Key: []byte(shiftID.String()), Value: payload})
	}

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	// Wire up the pipeline.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, newTestTransformer(t), writer, discardLogger(), observability.NewMetricsForTesting(), 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for received := 0; received < validRequests; received++ {
		assignment, headers := readAssignment(ctx, t, consumer)

		seen, known := shiftIDs[assignment.ShiftID]
		require.True(t, known, "unexpected shift %s on sink topic", assignment.ShiftID)
		require.False(t, seen, "duplicate assignment for shift %s", assignment.ShiftID)
		shiftIDs[assignment.ShiftID] = true

		assert.Equal(t, assignment.ShiftID.String(), headers["shift_id"])
		require.Len(t, assignment.Ranking, 2)
		assert.GreaterOrEqual(t, assignment.Ranking[0].Score, assignment.Ranking[1].Score)
		assert.False(t, assignment.GeneratedAt.IsZero())
	}

	// The poison message must not produce anything further.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no extra message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
