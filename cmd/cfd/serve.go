package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Noelok/CFD/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a scenario and expose the monitor over SSH",
	Long: `Run the configured scenario headless and serve the live monitor to
SSH clients. Every session sees the same run and shares its controls:
a pause or stop issued by any client applies to the run itself.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.cfd/host_key

Examples:
  cfd serve
  cfd serve --ssh :2222
  cfd serve --host-key ./my_host_key

Clients connect with:
  ssh localhost -p 23234`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runServe(_ *cobra.Command, _ []string) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "cfd",
	})

	pr, err := prepareRun(logger, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	done := make(chan struct{})
	var runErr error
	go func() {
		runErr = pr.ctl.Run()
		close(done)
	}()

	newMonitor := func(_, _ int) tui.Monitor {
		return tui.NewMonitor(pr.sig, pr.ctl.Snapshot, done,
			func() error { return runErr },
			pr.scenario.Name, pr.shape.String())
	}

	server, err := tui.NewSSHServer(tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
	}, newMonitor)
	if err != nil {
		pr.sig.Stop()
		<-done
		pr.finish(runErr)
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	if err := server.ListenAndServe(done); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	// The server exits on interrupt too; make sure the run winds down.
	pr.sig.Stop()
	<-done

	pr.finish(runErr)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
