package api

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"fleetopt/internal/model"
)

func TestRedisBrokerRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewRedisBroker("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	ch := b.Subscribe("run-1")
	defer b.Unsubscribe("run-1", ch)

	evt := model.Event{Type: "period.accepted", RunID: "run-1", Month: "2026-05", Status: model.StatusOptimal, Score: "H0/M2/S140"}
	b.Publish("run-1", evt)

	select {
	case got := <-ch:
		if got.Type != evt.Type || got.Month != evt.Month || got.Score != evt.Score {
			t.Fatalf("got %+v, want %+v", got, evt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for pubsub delivery")
	}
}

func TestRedisBrokerBadURL(t *testing.T) {
	if _, err := NewRedisBroker("not-a-url"); err == nil {
		t.Fatal("expected error for malformed url")
	}
}
