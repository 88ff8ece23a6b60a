package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"

	"stockwatch/internal/models"
	"stockwatch/internal/store"
	"stockwatch/internal/testutil"
)

var sample = models.Alert{
	ID:         "a1",
	Kind:       models.AlertHighDemand,
	ItemName:   "Bolt",
	Title:      "High Demand Item",
	Message:    "Bolt is experiencing high demand",
	Severity:   "warning",
	DurationMS: 5000,
}

func TestMulti_AttemptsEverySink(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	m := Multi{
		SinkFunc(func(context.Context, models.Alert) error { calls = append(calls, "a"); return boom }),
		SinkFunc(func(context.Context, models.Alert) error { calls = append(calls, "b"); return nil }),
	}
	err := m.Notify(context.Background(), sample)
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error, got %v", err)
	}
	if strings.Join(calls, ",") != "a,b" {
		t.Errorf("expected both sinks called, got %v", calls)
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	s := LogSink{Logger: log.New(&buf, "", 0)}
	if err := s.Notify(context.Background(), sample); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "High Demand Item: Bolt is experiencing high demand") {
		t.Errorf("unexpected log line %q", buf.String())
	}
}

func TestStoreSink(t *testing.T) {
	st := store.New(testutil.SetupTestDB(t))
	s := StoreSink{Store: st}
	if err := s.Notify(context.Background(), sample); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	notifs, err := st.ListNotifications(context.Background(), true, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(notifs) != 1 || notifs[0].Type != models.AlertHighDemand || notifs[0].DurationMS != 5000 {
		t.Errorf("unexpected notifications: %+v", notifs)
	}
}

type fakePublisher struct {
	channel string
	payload []byte
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisSink_PublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	s := &RedisSink{Client: pub, Channel: "stockwatch:alerts"}
	if err := s.Notify(context.Background(), sample); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if pub.channel != "stockwatch:alerts" {
		t.Errorf("channel = %q", pub.channel)
	}
	var got models.Alert
	if err := json.Unmarshal(pub.payload, &got); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if got != sample {
		t.Errorf("payload = %+v, want %+v", got, sample)
	}

	pub.err = errors.New("connection refused")
	if err := s.Notify(context.Background(), sample); err == nil {
		t.Error("expected publish error")
	}
}
