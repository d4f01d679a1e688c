package main

import (
	"context"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"lineking/buffer"
	"lineking/config"
	"lineking/engine"

	"github.com/neovim/go-client/nvim"
)

const (
	idleShutdownDelay  = 30 * time.Second
	idleRecheckDelay   = 5 * time.Second
	configDebounceTime = 200 * time.Millisecond
)

type Daemon struct {
	store       *config.Store
	watcher     *config.Watcher
	engine      *engine.Engine
	listener    net.Listener
	socketPath  string
	pidPath     string
	clientCount int64
	ctx         context.Context
	cancel      context.CancelFunc
	stopOnce    sync.Once
}

func NewDaemon(store *config.Store) *Daemon {
	eng := engine.NewEngine(buffer.New(), store.Get())
	store.OnChange(eng.Reconfigure)

	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		store:      store,
		engine:     eng,
		socketPath: getSocketPath(),
		pidPath:    getPidPath(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (d *Daemon) Start() error {
	d.writePidFile()
	defer d.removePidFile()

	if err := d.setupSocket(); err != nil {
		return err
	}
	defer d.cleanup()

	log.Printf("daemon listening on socket: %s", d.socketPath)

	d.engine.Start(d.ctx)
	d.watchConfig()
	d.setupShutdownHandling()

	go d.acceptConnections()
	go d.monitorIdleShutdown()

	<-d.ctx.Done()
	log.Printf("daemon shutting down...")
	return nil
}

// watchConfig reloads settings when the config file changes. Without a
// file there is nothing to watch.
func (d *Daemon) watchConfig() {
	if d.store.Path() == "" {
		return
	}
	w, err := config.Watch(d.store, configDebounceTime)
	if err != nil {
		log.Printf("warning: not watching config: %v", err)
		return
	}
	d.watcher = w
}

func (d *Daemon) setupSocket() error {
	// Remove a stale socket from a daemon that did not shut down cleanly
	os.Remove(d.socketPath)

	listener, err := net.Listen("unix", d.socketPath)
	if err != nil {
		return err
	}
	d.listener = listener
	return nil
}

func (d *Daemon) setupShutdownHandling() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Printf("received shutdown signal")
		d.Stop()
	}()
}

func (d *Daemon) acceptConnections() {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.ctx.Done():
				return
			default:
				log.Printf("error accepting connection: %v", err)
				continue
			}
		}

		atomic.AddInt64(&d.clientCount, 1)
		log.Printf("new client connected, total clients: %d", atomic.LoadInt64(&d.clientCount))
		go d.handleConnection(conn)
	}
}

func (d *Daemon) handleConnection(conn net.Conn) {
	defer conn.Close()
	defer func() {
		atomic.AddInt64(&d.clientCount, -1)
		log.Printf("client disconnected, remaining clients: %d", atomic.LoadInt64(&d.clientCount))
	}()

	n, err := nvim.New(conn, conn, conn, log.Printf)
	if err != nil {
		log.Printf("error creating nvim client: %v", err)
		return
	}

	// The most recent connection is the one commands run against
	d.engine.SetNvim(n)

	select {
	case <-d.ctx.Done():
		return
	default:
		if err := n.Serve(); err != nil && err != io.EOF {
			log.Printf("error serving connection: %v", err)
		}
	}
}

func (d *Daemon) monitorIdleShutdown() {
	// In debug mode, shut down as soon as no clients are connected
	if d.store.Get().DebugImmediateShutdown {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-d.ctx.Done():
				return
			case <-ticker.C:
				if atomic.LoadInt64(&d.clientCount) == 0 {
					log.Printf("debug mode: no clients connected, shutting down daemon immediately")
					d.Stop()
					return
				}
			}
		}
	}

	idleTimer := time.NewTimer(idleShutdownDelay)
	defer idleTimer.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-idleTimer.C:
			if atomic.LoadInt64(&d.clientCount) == 0 {
				log.Printf("no clients connected for timeout period, shutting down daemon")
				d.Stop()
				return
			}
		}

		if atomic.LoadInt64(&d.clientCount) == 0 {
			idleTimer.Reset(idleRecheckDelay)
		} else {
			idleTimer.Reset(idleShutdownDelay)
		}
	}
}

// Stop shuts the daemon down. Both the signal handler and the idle
// monitor call it, so only the first call does anything.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() {
		d.engine.Stop()
		if d.watcher != nil {
			d.watcher.Close()
		}
		if d.listener != nil {
			d.listener.Close()
		}
		d.cancel()
	})
}

func (d *Daemon) cleanup() {
	os.Remove(d.socketPath)
}

func (d *Daemon) writePidFile() {
	pid := os.Getpid()
	if err := os.WriteFile(d.pidPath, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		log.Printf("warning: could not write PID file: %v", err)
	}
	log.Printf("daemon started with PID %d", pid)
}

func (d *Daemon) removePidFile() {
	if err := os.Remove(d.pidPath); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not remove PID file: %v", err)
	}
}
