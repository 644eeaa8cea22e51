package main

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func TestSecondSignalIsNotSwallowed(t *testing.T) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGUSR1)
	defer signal.Stop(sigChan)

	var stopped atomic.Bool
	done := make(chan bool)
	go func() {
		stopOnSignal(logs.NewTestingLog(t), sigChan, func() { stopped.Store(true) })
		close(done)
	}()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Signal was not handled")
	}
	require.True(t, stopped.Load())

	// sigChan must no longer be registered. Catch the next signal elsewhere, so that
	// the default action doesn't end the test process.
	other := make(chan os.Signal, 1)
	signal.Notify(other, syscall.SIGUSR1)
	defer signal.Stop(other)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	select {
	case <-other:
	case <-time.After(5 * time.Second):
		t.Fatal("Second signal was not delivered")
	}
	select {
	case <-sigChan:
		t.Fatal("Second signal was delivered to the stopped handler")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClosedSignalChannel(t *testing.T) {
	sigChan := make(chan os.Signal)
	close(sigChan)
	called := false
	stopOnSignal(logs.NewTestingLog(t), sigChan, func() { called = true })
	require.False(t, called)
}
