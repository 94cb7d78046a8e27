// Package client finds or starts the profile daemon and connects to it.
package client

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/matheus3301/huddle/internal/remote/grpcstore"
	"github.com/matheus3301/huddle/internal/session"
	"go.uber.org/zap"
)

// DaemonBinary is the executable started when no daemon answers.
const DaemonBinary = "huddled"

// Probe reports whether a daemon answers a Status call on socketPath.
func Probe(ctx context.Context, socketPath string) bool {
	st, err := grpcstore.Dial(socketPath, zap.NewNop())
	if err != nil {
		return false
	}
	defer func() { _ = st.Close() }()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err = st.Status(ctx)
	return err == nil
}

// StartDaemon launches huddled for profile in the background, preferring a
// binary next to the running executable.
func StartDaemon(profile string) error {
	bin := DaemonBinary
	if exe, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exe), DaemonBinary)
		if _, err := os.Stat(sibling); err == nil {
			bin = sibling
		}
	}

	cmd := exec.Command(bin, "--profile", profile, "--quiet")
	// Inherit stderr so startup errors are visible.
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

// WaitReady polls Probe until it succeeds or timeout elapses.
func WaitReady(ctx context.Context, socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if Probe(ctx, socketPath) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(300 * time.Millisecond):
		}
	}
	return false
}

// Connect returns a store served by profile's daemon. When autoStart is set
// and no daemon answers, one is started first.
func Connect(ctx context.Context, profile string, autoStart bool, logger *zap.Logger) (*grpcstore.Store, error) {
	socketPath := session.SocketPath(profile)
	if !Probe(ctx, socketPath) {
		if !autoStart {
			return nil, fmt.Errorf("daemon for profile %q is not running", profile)
		}
		logger.Info("starting daemon", zap.String("profile", profile))
		if err := StartDaemon(profile); err != nil {
			return nil, fmt.Errorf("start daemon: %w", err)
		}
		if !WaitReady(ctx, socketPath, 10*time.Second) {
			return nil, fmt.Errorf("daemon for profile %q did not become ready", profile)
		}
	}
	return grpcstore.Dial(socketPath, logger)
}
