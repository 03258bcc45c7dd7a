package mq

import (
	"strings"
	"testing"
)

func TestExchangeIsTopic(t *testing.T) {
	if ExchangeName != "events" {
		t.Fatalf("exchange = %q", ExchangeName)
	}
	if ExchangeKind != "topic" {
		t.Fatalf("exchange kind = %q, want topic", ExchangeKind)
	}
}

func TestNewConnectionRejectsNonAMQPURL(t *testing.T) {
	for _, url := range []string{"http://localhost:5672/", "not a url"} {
		conn, err := NewConnection(url)
		if err == nil {
			conn.Close()
			t.Fatalf("NewConnection(%q) succeeded", url)
		}
		if !strings.Contains(err.Error(), "failed to connect to RabbitMQ") {
			t.Fatalf("unexpected error for %q: %v", url, err)
		}
	}
}

func TestNewPublisherPropagatesDialError(t *testing.T) {
	if _, err := NewPublisher("http://localhost:5672/"); err == nil {
		t.Fatal("expected an error")
	}
}
