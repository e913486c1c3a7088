// Package container wires deepsearch services using go.uber.org/dig.
package container

import (
	"net"
	"net/http"
	"strconv"

	"go.uber.org/dig"

	"github.com/crystaldolphin/deepsearch/internal/config"
	"github.com/crystaldolphin/deepsearch/internal/deepsearch"
	"github.com/crystaldolphin/deepsearch/internal/gateway"
	"github.com/crystaldolphin/deepsearch/internal/tools"
)

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	cfg      *config.Config
	client   *deepsearch.Client
	registry *tools.Registry
	gateway  *gateway.Server
}

func (c *Container) Config() *config.Config     { return c.cfg }
func (c *Container) Client() *deepsearch.Client { return c.client }
func (c *Container) Registry() *tools.Registry  { return c.registry }
func (c *Container) Gateway() *gateway.Server   { return c.gateway }

// New builds and wires all services from cfg. hc may be nil, in which case
// a default http.Client is used.
func New(cfg *config.Config, hc *http.Client) (*Container, error) {
	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(func() *http.Client { return newHTTPClient(hc) }); err != nil {
		return nil, err
	}
	if err := d.Provide(newClient); err != nil {
		return nil, err
	}
	if err := d.Provide(newRegistry); err != nil {
		return nil, err
	}
	if err := d.Provide(newGateway); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(
		client *deepsearch.Client,
		registry *tools.Registry,
		gw *gateway.Server,
	) {
		result = &Container{
			cfg:      cfg,
			client:   client,
			registry: registry,
			gateway:  gw,
		}
	})
	return result, err
}

func newHTTPClient(hc *http.Client) *http.Client {
	if hc != nil {
		return hc
	}
	// No client-level timeout: streamed searches run for minutes and the
	// configured timeout is applied per request.
	return &http.Client{}
}

func newClient(cfg *config.Config, hc *http.Client) *deepsearch.Client {
	return deepsearch.NewClient(cfg.DeepSearch(), deepsearch.WithHTTPClient(hc))
}

func newRegistry(client *deepsearch.Client) *tools.Registry {
	return tools.NewRegistryBuilder().
		WithTool(tools.NewDeepSearchTool(client)).
		Build()
}

func newGateway(cfg *config.Config, reg *tools.Registry) *gateway.Server {
	addr := net.JoinHostPort(cfg.Gateway.Host, strconv.Itoa(cfg.Gateway.Port))
	return gateway.NewServer(addr, reg.AllTools())
}
