// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"os"
	"testing"
	"time"
)

type refreshRecorder struct {
	ids chan string
}

func (r *refreshRecorder) Refresh(_ context.Context, id string) error {
	r.ids <- id
	return nil
}

func TestBridgeRelaysForeignChanges(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local, err := NewBridge(url, "local")
	if err != nil {
		t.Fatalf("NewBridge failed: %v", err)
	}
	defer local.Close()
	remote, err := NewBridge(url, "remote")
	if err != nil {
		t.Fatalf("NewBridge failed: %v", err)
	}
	defer remote.Close()

	rec := &refreshRecorder{ids: make(chan string, 4)}
	if err := local.Start(ctx, rec); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	local.nc.Flush()

	// Own messages are ignored, foreign ones trigger a refresh
	local.Changed("own", 1)
	remote.Changed("s-42", 3)
	remote.nc.Flush()

	select {
	case id := <-rec.ids:
		if id != "s-42" {
			t.Errorf("refreshed %q, want s-42", id)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no refresh received")
	}
}
