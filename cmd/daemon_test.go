package cmd

import (
	"path/filepath"
	"testing"
	"time"
)

func TestResolveDaemonAddr(t *testing.T) {
	stateFile := statePath(filepath.Join(t.TempDir(), "wattwatchd.pid"))

	if got := resolveDaemonAddr("127.0.0.1:8788", false, stateFile); got != "127.0.0.1:8788" {
		t.Fatalf("no state file: addr = %q, want flag default", got)
	}

	if err := writeState(stateFile, daemonRuntimeState{PID: 42, Addr: "127.0.0.1:9900", StartedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if got := resolveDaemonAddr("127.0.0.1:8788", false, stateFile); got != "127.0.0.1:9900" {
		t.Fatalf("state file: addr = %q, want recorded 127.0.0.1:9900", got)
	}
	if got := resolveDaemonAddr("10.0.0.5:7000", true, stateFile); got != "10.0.0.5:7000" {
		t.Fatalf("explicit --addr ignored: got %q", got)
	}
}

func TestDaemonAddr_ExplicitFlagWins(t *testing.T) {
	pidFile := flagDaemonPIDFile
	addr := flagDaemonAddr
	t.Cleanup(func() {
		flagDaemonPIDFile = pidFile
		flagDaemonAddr = addr
	})

	flagDaemonPIDFile = filepath.Join(t.TempDir(), "wattwatchd.pid")
	if err := writeState(statePath(flagDaemonPIDFile), daemonRuntimeState{Addr: "127.0.0.1:9900"}); err != nil {
		t.Fatal(err)
	}

	if err := replayCmd.Flags().Set("addr", "10.0.0.5:7000"); err != nil {
		t.Fatal(err)
	}
	if got := daemonAddr(replayCmd); got != "10.0.0.5:7000" {
		t.Fatalf("daemonAddr = %q, want explicit 10.0.0.5:7000", got)
	}
}
