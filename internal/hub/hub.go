// Package hub assembles the socket hub: MQTT ingress, the session core and
// the HTTP API are built from a Config and run together until shutdown.
package hub

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/plughub-io/plughub/pkg/log"
)

// Server defines the common interface for all sub-servers (mqtt, http).
type Server interface {
	Start(ctx context.Context) error
}

// HubServer is the main application struct for the hub.
type HubServer struct {
	servers []Server
}

// Run launches all servers in parallel and waits for termination. The first
// server error, or ctx cancellation, stops the rest.
func (a *HubServer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, s := range a.servers {
		srv := s
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	log.Info("All servers starting...")
	return g.Wait()
}
