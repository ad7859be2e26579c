package xcm

import (
	"context"
	"sync"
)

// Lease keeps a client connected across several consecutive calls.
// Release restores the auto-disconnect flag seen at Pin time and then
// disconnects, which is a no-op while an outer lease still holds the client.
type Lease struct {
	client ChainClient
	prior  bool
	once   sync.Once
}

// Pin disallows auto-disconnect on the client until the lease is released
func Pin(client ChainClient) *Lease {
	prior := client.DisconnectAllowed()
	client.SetDisconnectAllowed(false)
	return &Lease{client: client, prior: prior}
}

// Release is idempotent and keeps working after ctx is cancelled
func (l *Lease) Release(ctx context.Context) error {
	var err error
	l.once.Do(func() {
		l.client.SetDisconnectAllowed(l.prior)
		err = l.client.Disconnect(context.WithoutCancel(ctx))
		if err != nil {
			xcmLog.Warn().Err(err).Str("chain", l.client.Chain()).Msg("Failed to disconnect chain client")
		}
	})
	return err
}
