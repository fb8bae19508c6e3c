package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, zap.NewNop()) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}

func TestServeReportsListenFailure(t *testing.T) {
	srv := &http.Server{Addr: "256.0.0.1:bad", Handler: http.NotFoundHandler()}
	err := serve(context.Background(), srv, zap.NewNop())
	require.ErrorContains(t, err, "listen")
}

func TestRunHelpFlag(t *testing.T) {
	err := run(context.Background(), []string{"-h"})
	require.Error(t, err)
}
