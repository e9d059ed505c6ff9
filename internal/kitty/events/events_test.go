package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitties/internal/kitty/models"
	id "kitties/pkg/domain"
	"kitties/pkg/platform/circuit"
)

var (
	testDNA   = id.DNA{0xaa, 0xbb}
	testOwner = id.AccountID{0x01}
	testTime  = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

func createdEvent() models.Created {
	return models.Created{Kitty: testDNA, Owner: testOwner, Gender: models.GenderMale, Counter: 10, OccurredAt: testTime}
}

func TestEnvelope_RoundTrip(t *testing.T) {
	env, err := NewEnvelope(createdEvent())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, env.ID)
	assert.Equal(t, models.EventCreated, env.Type)
	assert.Equal(t, testTime, env.OccurredAt)
	require.Len(t, env.Topics, 2)
	assert.Equal(t, testDNA.String(), env.Topics[0])
	assert.Equal(t, testOwner.String(), env.Topics[1])
	assert.Equal(t, testDNA.String(), env.AggregateID())

	decoded, err := env.Decode()
	require.NoError(t, err)
	assert.Equal(t, createdEvent(), decoded)
}

func TestEnvelope_Approval(t *testing.T) {
	ev := models.Approval{From: testOwner, To: id.AccountID{2}, Kitty: testDNA, OccurredAt: testTime}
	env, err := NewEnvelope(ev)
	require.NoError(t, err)
	assert.Equal(t, testOwner.String(), env.AggregateID())

	decoded, err := env.Decode()
	require.NoError(t, err)
	assert.Equal(t, ev, decoded)
}

func TestEnvelope_Errors(t *testing.T) {
	_, err := NewEnvelope(nil)
	assert.Error(t, err)

	_, err = Envelope{Type: "mystery", Payload: json.RawMessage(`{}`)}.Decode()
	assert.Error(t, err)
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()
	require.NoError(t, sink.Emit(context.Background(), createdEvent()))
	got := sink.Events()
	require.Len(t, got, 1)
	assert.Equal(t, createdEvent(), got[0])

	sink.Clear()
	assert.Empty(t, sink.Events())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, sink.Emit(context.Background(), createdEvent()))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "registry event", line["msg"])
	assert.Equal(t, string(models.EventCreated), line["event_type"])
	assert.Equal(t, []any{testDNA.String(), testOwner.String()}, line["topics"])
}

func TestAsyncPublisher_WorkerForwards(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := NewMemorySink()
	pub := NewAsyncPublisher(4)
	worker := NewWorker(sink, pub.Inbox(), nil)

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	require.NoError(t, pub.Emit(ctx, createdEvent()))
	assert.Eventually(t, func() bool { return len(sink.Events()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestAsyncPublisher_DropsWhenFull(t *testing.T) {
	drops := 0
	pub := NewAsyncPublisher(1, WithDropHook(func() { drops++ }))

	require.NoError(t, pub.Emit(context.Background(), createdEvent()))
	require.NoError(t, pub.Emit(context.Background(), createdEvent()))
	assert.Equal(t, 1, drops)
}

type fakeProducer struct {
	mu      sync.Mutex
	records []fakeRecord
	err     error
}

type fakeRecord struct {
	topic   string
	key     []byte
	value   []byte
	headers map[string]string
}

func (p *fakeProducer) Produce(_ context.Context, topic string, key, value []byte, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.records = append(p.records, fakeRecord{topic: topic, key: key, value: value, headers: headers})
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewKafkaPublisher(producer, "kitties.events")

	require.NoError(t, pub.Emit(context.Background(), createdEvent()))
	require.Len(t, producer.records, 1)
	rec := producer.records[0]
	assert.Equal(t, "kitties.events", rec.topic)
	assert.Equal(t, testDNA.String(), string(rec.key))
	assert.Equal(t, string(models.EventCreated), rec.headers["event_type"])

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.value, &env))
	assert.Equal(t, env.ID.String(), rec.headers["event_id"])

	producer.err = errors.New("broker down")
	assert.Error(t, pub.Emit(context.Background(), createdEvent()))
}

type fakeOutbox struct {
	entries   []OutboxEntry
	published []uuid.UUID
	fetchErr  error
}

func (o *fakeOutbox) FetchUnpublished(_ context.Context, limit int) ([]OutboxEntry, error) {
	if o.fetchErr != nil {
		return nil, o.fetchErr
	}
	if len(o.entries) > limit {
		return o.entries[:limit], nil
	}
	return o.entries, nil
}

func (o *fakeOutbox) MarkPublished(_ context.Context, ids []uuid.UUID, _ time.Time) error {
	o.published = append(o.published, ids...)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type countingMetrics struct {
	published int
	failures  int
}

func (m *countingMetrics) IncOutboxPublished(n int) { m.published += n }
func (m *countingMetrics) IncOutboxFailures()       { m.failures++ }

func TestRelay_RelayOnce(t *testing.T) {
	e1 := OutboxEntry{ID: uuid.New(), AggregateID: "a", EventType: models.EventCreated, Payload: []byte(`{}`)}
	e2 := OutboxEntry{ID: uuid.New(), AggregateID: "b", EventType: models.EventCreated, Payload: []byte(`{}`)}

	t.Run("publishes and marks batch", func(t *testing.T) {
		outbox := &fakeOutbox{entries: []OutboxEntry{e1, e2}}
		producer := &fakeProducer{}
		metrics := &countingMetrics{}
		relay := NewRelay(outbox, producer, passthroughTx{}, "topic", WithRelayMetrics(metrics))

		n, err := relay.RelayOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []uuid.UUID{e1.ID, e2.ID}, outbox.published)
		require.Len(t, producer.records, 2)
		assert.Equal(t, "a", string(producer.records[0].key))
		assert.Equal(t, 2, metrics.published)
	})

	t.Run("respects batch size", func(t *testing.T) {
		outbox := &fakeOutbox{entries: []OutboxEntry{e1, e2}}
		relay := NewRelay(outbox, &fakeProducer{}, passthroughTx{}, "topic", WithRelayBatchSize(1))

		n, err := relay.RelayOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("produce failure marks nothing", func(t *testing.T) {
		outbox := &fakeOutbox{entries: []OutboxEntry{e1, e2}}
		relay := NewRelay(outbox, &fakeProducer{err: errors.New("down")}, passthroughTx{}, "topic")

		n, err := relay.RelayOnce(context.Background())
		assert.Error(t, err)
		assert.Zero(t, n)
		assert.Empty(t, outbox.published)
	})

	t.Run("empty outbox", func(t *testing.T) {
		n, err := NewRelay(&fakeOutbox{}, &fakeProducer{}, passthroughTx{}, "topic").RelayOnce(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestRelay_RunCountsFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	metrics := &countingMetrics{}
	relay := NewRelay(&fakeOutbox{fetchErr: errors.New("db down")}, &fakeProducer{}, passthroughTx{}, "topic",
		WithRelayInterval(time.Millisecond),
		WithRelayMetrics(metrics),
	)

	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Positive(t, metrics.failures)
}

func TestRelay_BreakerHealth(t *testing.T) {
	ctx := context.Background()
	outbox := &fakeOutbox{fetchErr: errors.New("db down")}
	relay := NewRelay(outbox, &fakeProducer{}, passthroughTx{}, "topic",
		WithRelayBreaker(circuit.New("relay-test", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(2))),
		WithRelayLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	relay.tick(ctx)
	require.NoError(t, relay.Health(ctx))
	relay.tick(ctx)
	require.Error(t, relay.Health(ctx))

	outbox.fetchErr = nil
	relay.tick(ctx)
	require.Error(t, relay.Health(ctx), "one success is not enough to close")
	relay.tick(ctx)
	require.NoError(t, relay.Health(ctx))
}
