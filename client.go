package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"lineking/logger"
)

// Client relays the editor's stdio RPC channel to the daemon socket
type Client struct {
	socketPath string
	daemonArgs []string
}

func NewClient(opts *Options) *Client {
	args := []string{"--daemon"}
	if opts.Config != "" {
		args = append(args, "--config", opts.Config)
	}
	if opts.LogLevel != "" {
		args = append(args, "--log-level", opts.LogLevel)
	}
	return &Client{
		socketPath: getSocketPath(),
		daemonArgs: args,
	}
}

func (c *Client) Connect() error {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		io.Copy(conn, os.Stdin)
		conn.Close()
	}()

	io.Copy(os.Stdout, conn)
	return nil
}

func (c *Client) EnsureDaemonRunning() error {
	running, pid := isDaemonRunning()
	if running {
		logger.Debug("daemon already running with PID %d", pid)
		return nil
	}

	return c.startDaemon()
}

func (c *Client) startDaemon() error {
	logger.Debug("starting daemon...")

	argv := append([]string{os.Args[0]}, c.daemonArgs...)
	_, err := os.StartProcess(os.Args[0], argv, &os.ProcAttr{
		Env:   os.Environ(),
		Files: []*os.File{nil, nil, nil},
	})
	if err != nil {
		return err
	}

	return c.waitForDaemon()
}

func (c *Client) waitForDaemon() error {
	for range 50 { // Wait up to 5 seconds
		if running, _ := isDaemonRunning(); running {
			if _, err := os.Stat(c.socketPath); err == nil {
				logger.Debug("daemon started successfully")
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon failed to start within timeout")
}
