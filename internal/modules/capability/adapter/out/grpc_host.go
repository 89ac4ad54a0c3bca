package out

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	caprpc "pahm/internal/modules/capability/adapter/out/rpc"
	"pahm/internal/modules/capability/domain"
	capabilityout "pahm/internal/modules/capability/port/out"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// GRPCHost starts provider binaries through go-plugin.
type GRPCHost struct {
	log hclog.Logger
}

func NewGRPCHost(logger hclog.Logger) capabilityout.Host {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GRPCHost{log: logger.Named("provider")}
}

func (h *GRPCHost) CheckLifecycle(ctx context.Context, manifest domain.Manifest) error {
	_, err := h.GetMetadata(ctx, manifest)
	return err
}

func (h *GRPCHost) GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error) {
	conn, err := h.open(manifest)
	if err != nil {
		return domain.Metadata{}, err
	}
	defer conn.Close()

	callCtx, cancel := callContext(ctx)
	defer cancel()
	meta, err := conn.client.GetMetadata(callCtx)
	if err != nil {
		return domain.Metadata{}, wrapCallError("get metadata", callCtx, err)
	}
	capabilities := make([]domain.Capability, 0, len(meta.Capabilities))
	for _, c := range meta.Capabilities {
		capabilities = append(capabilities, domain.Capability(c))
	}
	return domain.Metadata{Name: meta.Name, Version: meta.Version, Capabilities: capabilities}, nil
}

func (h *GRPCHost) Open(_ context.Context, manifest domain.Manifest) (capabilityout.Connection, error) {
	return h.open(manifest)
}

func (h *GRPCHost) open(manifest domain.Manifest) (*grpcConnection, error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  caprpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          caprpc.PluginMap(nil),
		Cmd:              exec.Command(manifest.Binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           h.log.With("provider", manifest.Name),
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start provider %s: %w", manifest.Name, err)
	}
	raw, err := rpcClient.Dispense(caprpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense provider %s: %w", manifest.Name, err)
	}
	typed, ok := raw.(caprpc.CapabilityProviderClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("provider %s: rpc client type mismatch", manifest.Name)
	}
	return &grpcConnection{process: client, client: typed}, nil
}

type grpcConnection struct {
	process *plugin.Client
	client  caprpc.CapabilityProviderClient

	once sync.Once
}

func (c *grpcConnection) AcquireWake(ctx context.Context, reason string) error {
	callCtx, cancel := callContext(ctx)
	defer cancel()
	status, err := c.client.AcquireWake(callCtx, &caprpc.WakeRequest{Reason: reason})
	if err != nil {
		return wrapCallError("acquire wake lock", callCtx, err)
	}
	if !status.Held {
		return fmt.Errorf("%w: %s", domain.ErrWakeLockDenied, status.Detail)
	}
	return nil
}

func (c *grpcConnection) ReleaseWake(ctx context.Context) error {
	callCtx, cancel := callContext(ctx)
	defer cancel()
	if err := c.client.ReleaseWake(callCtx); err != nil {
		return wrapCallError("release wake lock", callCtx, err)
	}
	return nil
}

func (c *grpcConnection) WakeHeld(ctx context.Context) (bool, error) {
	callCtx, cancel := callContext(ctx)
	defer cancel()
	status, err := c.client.WakeHeld(callCtx)
	if err != nil {
		return false, wrapCallError("wake lock status", callCtx, err)
	}
	return status.Held, nil
}

func (c *grpcConnection) PlayCue(ctx context.Context, cue domain.Cue) error {
	callCtx, cancel := callContext(ctx)
	defer cancel()
	if err := c.client.PlayCue(callCtx, &caprpc.CueRequest{Cue: string(cue)}); err != nil {
		return wrapCallError("play cue", callCtx, err)
	}
	return nil
}

func (c *grpcConnection) Exited() bool {
	return c.process.Exited()
}

func (c *grpcConnection) Close() {
	c.once.Do(c.process.Kill)
}

func callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, defaultCallTimeout)
}

func wrapCallError(op string, callCtx context.Context, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", domain.ErrProviderTimeout, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// CleanupProviders kills every provider process still running.
func CleanupProviders() {
	plugin.CleanupClients()
}
