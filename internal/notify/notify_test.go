package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/BryceStandley/ManifestToScale/internal/logging"
)

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.subject = subject
	p.data = data
	return p.err
}

func TestSubjects(t *testing.T) {
	date := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	if got := SuccessSubject("Fresh To Go", date); got != "Fresh To Go Scale Files - 08-07-2025" {
		t.Fatalf("SuccessSubject = %q", got)
	}
	if got := FailureSubject("manifest.pdf"); got != "Manifest Processing Error - manifest.pdf" {
		t.Fatalf("FailureSubject = %q", got)
	}
}

func TestDeliveryTime(t *testing.T) {
	at := DeliveryTime(time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC))
	want := time.Date(2025, 7, 7, 21, 0, 0, 0, time.UTC)
	if !at.Equal(want) {
		t.Fatalf("DeliveryTime = %v, want %v", at.UTC(), want)
	}

	msg := Message{DeliverAt: at}
	if !msg.Scheduled(want.Add(-time.Hour)) || msg.Scheduled(want.Add(time.Minute)) {
		t.Fatalf("Scheduled gave the wrong answer around %v", want)
	}
	if (Message{}).Scheduled(time.Now()) {
		t.Fatalf("a message without DeliverAt is never scheduled")
	}
}

func TestStanNotifierPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	n := NewStanNotifier(pub, "manifests")

	msg := Message{ID: "1", Subject: "s", Status: "processed", Lines: []string{"ok"}}
	if err := n.Notify(context.Background(), msg); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if pub.subject != "manifests" {
		t.Fatalf("subject = %q", pub.subject)
	}
	var got Message
	if err := json.Unmarshal(pub.data, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got.Status != "processed" || len(got.Lines) != 1 {
		t.Fatalf("unexpected payload %+v", got)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	rec := logging.NewRecorder(logging.LevelInfo)
	failing := NewStanNotifier(&fakePublisher{err: errors.New("down")}, "x")

	m := Multi{LogNotifier{Logger: logging.Tee(logging.Nop(), rec.Sink())}, nil, failing}
	err := m.Notify(context.Background(), Message{Subject: "Fresh To Go Scale Files - 08-07-2025", Status: "processed"})
	if err == nil {
		t.Fatalf("expected the publisher error")
	}
	if len(rec.Lines()) != 1 {
		t.Fatalf("log notifier should still run, got %v", rec.Lines())
	}
}
