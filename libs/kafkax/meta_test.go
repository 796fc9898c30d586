package kafkax

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestExtractEventMeta_Headers(t *testing.T) {
	msg := kafka.Message{
		Topic: "consult.consultation.created.v1",
		Key:   []byte("42"),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte("7")},
			{Key: "event_type", Value: []byte("consult.consultation.created.v1")},
		},
	}

	meta := ExtractEventMeta(msg)
	if meta.EventID != "7" {
		t.Fatalf("event id = %q, want 7", meta.EventID)
	}
	if meta.EventType != "consult.consultation.created.v1" {
		t.Fatalf("event type = %q", meta.EventType)
	}
}

func TestExtractEventMeta_FallsBackToKeyAndTopic(t *testing.T) {
	msg := kafka.Message{Topic: "scheduler.reminder.due.v1", Key: []byte("abc")}

	meta := ExtractEventMeta(msg)
	if meta.EventID != "abc" {
		t.Fatalf("event id = %q, want key fallback", meta.EventID)
	}
	if meta.EventType != "scheduler.reminder.due.v1" {
		t.Fatalf("event type = %q, want topic fallback", meta.EventType)
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092,")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Fatalf("SplitBrokers = %v", got)
	}
	if out := SplitBrokers(""); out != nil {
		t.Fatalf("empty input should yield nil, got %v", out)
	}
}
