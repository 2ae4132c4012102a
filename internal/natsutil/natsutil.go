// Package natsutil connects to NATS, starting an embedded JetStream server
// when no external URL is configured.
package natsutil

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Conn bundles a NATS connection, its JetStream context and the embedded
// server behind it, if any.
type Conn struct {
	NC       *nats.Conn
	JS       jetstream.JetStream
	Embedded *server.Server
}

// Options configures Connect.
type Options struct {
	// URL of an external server. Empty starts an embedded one.
	URL string

	// StoreDir holds embedded JetStream data. Empty uses a temporary directory.
	StoreDir string

	// Name identifies the client connection.
	Name string

	Logger *slog.Logger
}

// StartEmbedded starts a JetStream-enabled server on a random port.
func StartEmbedded(storeDir string) (*server.Server, error) {
	opts := &server.Options{
		Port:      -1, // Random available port
		JetStream: true,
		StoreDir:  storeDir,
		NoLog:     true,
		NoSigs:    true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}
	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server failed to start")
	}
	return ns, nil
}

// Connect dials opts.URL, or an embedded server when the URL is empty.
func Connect(opts Options) (*Conn, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := opts.Name
	if name == "" {
		name = "semgraph"
	}

	c := &Conn{}
	url := opts.URL
	if url == "" {
		ns, err := StartEmbedded(opts.StoreDir)
		if err != nil {
			return nil, err
		}
		c.Embedded = ns
		url = ns.ClientURL()
		logger.Info("Started embedded NATS server", "url", url)
	}

	nc, err := nats.Connect(url, nats.Name(name))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	c.NC = nc

	js, err := jetstream.New(nc)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	c.JS = js
	return c, nil
}

// Close drains the connection and stops the embedded server.
func (c *Conn) Close() {
	if c.NC != nil {
		_ = c.NC.Drain()
		c.NC.Close()
	}
	if c.Embedded != nil {
		c.Embedded.Shutdown()
		c.Embedded.WaitForShutdown()
	}
}
