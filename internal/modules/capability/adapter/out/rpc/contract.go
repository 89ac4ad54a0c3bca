package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey  = "pahm-capabilities"
	serviceName   = "pahm.capability.v1.CapabilityProvider"
	jsonCodecName = "json"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "PAHM_CAPABILITY_PLUGIN",
	MagicCookieValue: "pahm",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return jsonCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

type WakeRequest struct {
	Reason string `json:"reason"`
}

type WakeStatus struct {
	Held   bool   `json:"held"`
	Detail string `json:"detail,omitempty"`
}

type CueRequest struct {
	Cue string `json:"cue"`
}

type CapabilityProviderServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	AcquireWake(ctx context.Context, in *WakeRequest) (*WakeStatus, error)
	ReleaseWake(ctx context.Context, in *Empty) (*Empty, error)
	WakeHeld(ctx context.Context, in *Empty) (*WakeStatus, error)
	PlayCue(ctx context.Context, in *CueRequest) (*Empty, error)
}

type CapabilityProviderClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	AcquireWake(ctx context.Context, in *WakeRequest) (*WakeStatus, error)
	ReleaseWake(ctx context.Context) error
	WakeHeld(ctx context.Context) (*WakeStatus, error)
	PlayCue(ctx context.Context, in *CueRequest) error
}

type capabilityProviderClient struct {
	conn *grpc.ClientConn
}

func NewCapabilityProviderClient(conn *grpc.ClientConn) CapabilityProviderClient {
	return &capabilityProviderClient{conn: conn}
}

func (c *capabilityProviderClient) invoke(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, "/"+serviceName+"/"+method, in, out, grpc.CallContentSubtype(jsonCodecName))
}

func (c *capabilityProviderClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.invoke(ctx, "GetMetadata", &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *capabilityProviderClient) AcquireWake(ctx context.Context, in *WakeRequest) (*WakeStatus, error) {
	out := &WakeStatus{}
	if err := c.invoke(ctx, "AcquireWake", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *capabilityProviderClient) ReleaseWake(ctx context.Context) error {
	return c.invoke(ctx, "ReleaseWake", &Empty{}, &Empty{})
}

func (c *capabilityProviderClient) WakeHeld(ctx context.Context) (*WakeStatus, error) {
	out := &WakeStatus{}
	if err := c.invoke(ctx, "WakeHeld", &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *capabilityProviderClient) PlayCue(ctx context.Context, in *CueRequest) error {
	return c.invoke(ctx, "PlayCue", in, &Empty{})
}

// unaryMethod builds a JSON-coded unary handler that dispatches to the
// registered CapabilityProviderServer.
func unaryMethod[Req any, Resp any](name string, call func(CapabilityProviderServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			impl, ok := srv.(CapabilityProviderServer)
			if !ok {
				return nil, fmt.Errorf("invalid server type %T", srv)
			}
			if interceptor == nil {
				return call(impl, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				typed, ok := req.(*Req)
				if !ok {
					return nil, fmt.Errorf("invalid request type %T", req)
				}
				return call(impl, ctx, typed)
			})
		},
	}
}

func RegisterCapabilityProviderServer(server grpc.ServiceRegistrar, impl CapabilityProviderServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*CapabilityProviderServer)(nil),
		Methods: []grpc.MethodDesc{
			unaryMethod("GetMetadata", CapabilityProviderServer.GetMetadata),
			unaryMethod("AcquireWake", CapabilityProviderServer.AcquireWake),
			unaryMethod("ReleaseWake", CapabilityProviderServer.ReleaseWake),
			unaryMethod("WakeHeld", CapabilityProviderServer.WakeHeld),
			unaryMethod("PlayCue", CapabilityProviderServer.PlayCue),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/capability-rpc-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl CapabilityProviderServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterCapabilityProviderServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewCapabilityProviderClient(conn), nil
}

func PluginMap(impl CapabilityProviderServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
