package platform

import (
	"testing"
	"time"
)

func TestTimeoutMillis(t *testing.T) {
	if got := (Options{}).timeoutMillis(); got != 5000 {
		t.Fatalf("default timeout = %d", got)
	}
	if got := (Options{Timeout: 1500 * time.Millisecond}).timeoutMillis(); got != 1500 {
		t.Fatalf("timeout = %d", got)
	}
}
