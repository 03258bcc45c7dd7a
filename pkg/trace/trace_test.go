package trace

import (
	"context"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := WithContext(context.Background(), "abc")
	if got := FromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := FromContext(context.Background()); got != "" {
		t.Fatalf("expected empty trace id, got %q", got)
	}
}

func TestFromHeaderGeneratesWhenMissing(t *testing.T) {
	if got := FromHeader("given"); got != "given" {
		t.Fatalf("expected header value to be kept, got %q", got)
	}
	a, b := FromHeader(""), FromHeader("")
	if a == "" || a == b {
		t.Fatalf("expected distinct generated ids, got %q and %q", a, b)
	}
}
