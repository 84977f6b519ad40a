package telemetry

import (
	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
)

// newStatsd returns a client for the configured agent, or a client that drops everything when no
// address is set.
func newStatsd(opts Options) (statsd.ClientInterface, error) {
	if opts.StatsdAddress == "" {
		return &statsd.NoOpClient{}, nil
	}

	client, err := statsd.New(opts.StatsdAddress, statsd.WithNamespace(opts.StatsdNamespace))
	if err != nil {
		return nil, eris.Wrapf(err, "failed to create statsd client for %s", opts.StatsdAddress)
	}
	return client, nil
}
