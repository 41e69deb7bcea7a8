package amqp

import (
	"testing"
	"time"
)

func TestRefreshMessageJSON(t *testing.T) {
	msg := NewRefreshMessage("/srv/datasets", "importer")

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := RefreshMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Source != "/srv/datasets" {
		t.Errorf("Source = %q", got.Source)
	}
	if got.RequestedBy != "importer" {
		t.Errorf("RequestedBy = %q", got.RequestedBy)
	}
	if got.RequestedAt.IsZero() || time.Since(got.RequestedAt) > time.Minute {
		t.Errorf("RequestedAt = %v, want recent timestamp", got.RequestedAt)
	}
}

func TestRefreshMessageFromJSONInvalid(t *testing.T) {
	if _, err := RefreshMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
