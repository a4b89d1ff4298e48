package main

import (
	"testing"
	"time"
)

func TestRunAtIntervalFiresImmediately(t *testing.T) {
	ran := make(chan struct{}, 1)

	// A one-hour interval guarantees any run inside the window came from
	// the boot pass, not a tick.
	go runAtInterval(time.Hour, func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate run before the first tick")
	}
}
