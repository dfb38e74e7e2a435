package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		topic    Topic
		pattern  Topic
		expected bool
	}{
		{"capture.recorded", "capture.recorded", true},
		{"capture.recorded", "capture.*", true},
		{"capture.recorded", "*.recorded", true},
		{"capture.recorded", "**", true},
		{"capture.recorded", "capture.**", true},
		{"capture", "capture.**", true},
		{"capture.recorded", "session.*", false},
		{"capture.recorded", "capture", false},
		{"capture", "capture.*", false},
		{"a.b.c", "a.*.c", true},
		{"a.b.c", "a.**.c", true},
		{"a.c", "a.**.c", true},
	}

	for _, tt := range tests {
		if got := tt.topic.Matches(tt.pattern); got != tt.expected {
			t.Errorf("%q.Matches(%q) = %v, expected %v", tt.topic, tt.pattern, got, tt.expected)
		}
	}
}

func TestTopicIsValid(t *testing.T) {
	for topic, expected := range map[Topic]bool{
		"capture.recorded": true,
		"**":               true,
		"":                 false,
		"capture.":         false,
		".capture":         false,
		"a..b":             false,
	} {
		if got := topic.IsValid(); got != expected {
			t.Errorf("%q.IsValid() = %v, expected %v", topic, got, expected)
		}
	}
}

func TestPublishDeliversToMatching(t *testing.T) {
	b := NewBus()
	var got []Topic
	record := func(_ context.Context, e Event) { got = append(got, e.Topic) }

	b.Subscribe("capture.*", record)
	b.Subscribe("session.created", record)

	ctx := context.Background()
	b.Publish(ctx, Event{Topic: TopicCaptureRecorded, CaptureID: "a"})
	b.Publish(ctx, Event{Topic: TopicFrameEvaluated})
	b.Publish(ctx, Event{Topic: TopicSessionCreated})

	if len(got) != 2 || got[0] != TopicCaptureRecorded || got[1] != TopicSessionCreated {
		t.Errorf("delivered = %v", got)
	}
	if s := b.Stats(); s.Published != 3 || s.Delivered != 2 || s.Subscribers != 2 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestPublishSetsTime(t *testing.T) {
	b := NewBus()
	var seen Event
	b.Subscribe("**", func(_ context.Context, e Event) { seen = e })

	before := time.Now()
	b.Publish(context.Background(), Event{Topic: TopicCaptureEvicted})
	if seen.Time.Before(before) {
		t.Errorf("Time = %v", seen.Time)
	}
}

func TestSubscriberPanicIsContained(t *testing.T) {
	b := NewBus()
	delivered := false
	b.Subscribe("**", func(context.Context, Event) { panic("bad subscriber") })
	b.Subscribe("**", func(context.Context, Event) { delivered = true })

	if err := b.Publish(context.Background(), Event{Topic: TopicCaptureRecorded}); err != nil {
		t.Fatalf("Publish error = %v", err)
	}
	if !delivered {
		t.Error("later subscriber missed the event")
	}
	if s := b.Stats(); s.Panics != 1 || s.Delivered != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestCancel(t *testing.T) {
	b := NewBus()
	calls := 0
	sub, _ := b.Subscribe("**", func(context.Context, Event) { calls++ })

	b.Publish(context.Background(), Event{Topic: TopicCaptureRecorded})
	sub.Cancel()
	sub.Cancel()
	b.Publish(context.Background(), Event{Topic: TopicCaptureRecorded})

	if calls != 1 {
		t.Errorf("calls = %d, expected 1", calls)
	}
	if b.Stats().Subscribers != 0 {
		t.Error("cancelled subscription still registered")
	}
}

func TestErrors(t *testing.T) {
	b := NewBus()
	if _, err := b.Subscribe("", func(context.Context, Event) {}); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(\"\") error = %v", err)
	}
	if _, err := b.Subscribe("**", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("Subscribe(nil) error = %v", err)
	}
	if err := b.Publish(context.Background(), Event{}); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish(empty) error = %v", err)
	}

	var nilBus *Bus
	if err := nilBus.Publish(context.Background(), Event{Topic: TopicCaptureRecorded}); err != nil {
		t.Errorf("nil bus Publish error = %v", err)
	}
}

func TestConcurrentPublish(t *testing.T) {
	b := NewBus()
	var mu sync.Mutex
	count := 0
	b.Subscribe("capture.*", func(context.Context, Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Publish(context.Background(), Event{Topic: TopicCaptureRecorded})
		}()
	}
	wg.Wait()

	if count != 50 {
		t.Errorf("count = %d", count)
	}
}
