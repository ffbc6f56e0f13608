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
	PluginMapKey      = "magickd"
	serviceName       = "magickd.engine.v1.MagickEngine"
	jsonCodecName     = "json"
	methodGetMetadata = "/" + serviceName + "/GetMetadata"
	methodCall        = "/" + serviceName + "/Call"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "MAGICKD_ENGINE",
	MagicCookieValue: "magickd",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Formats []string `json:"formats"`
}

type File struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

type CallRequest struct {
	InputFiles []File   `json:"input_files"`
	Command    []string `json:"command"`
}

type CallResponse struct {
	Stdout      []string `json:"stdout"`
	Stderr      []string `json:"stderr"`
	ExitCode    int32    `json:"exit_code"`
	OutputFiles []File   `json:"output_files"`
}

type MagickEngineServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Call(ctx context.Context, in *CallRequest) (*CallResponse, error)
}

type MagickEngineClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Call(ctx context.Context, in *CallRequest) (*CallResponse, error)
}

type magickEngineClient struct {
	conn *grpc.ClientConn
}

func NewMagickEngineClient(conn *grpc.ClientConn) MagickEngineClient {
	return &magickEngineClient{conn: conn}
}

func (c *magickEngineClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *magickEngineClient) Call(ctx context.Context, in *CallRequest) (*CallResponse, error) {
	out := &CallResponse{}
	if err := c.conn.Invoke(ctx, methodCall, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterMagickEngineServer(server grpc.ServiceRegistrar, impl MagickEngineServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*MagickEngineServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetMetadata",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &Empty{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.GetMetadata(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetMetadata}
					handler := func(ctx context.Context, req any) (any, error) {
						empty, ok := req.(*Empty)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.GetMetadata(ctx, empty)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
			{
				MethodName: "Call",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &CallRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Call(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCall}
					handler := func(ctx context.Context, req any) (any, error) {
						inReq, ok := req.(*CallRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Call(ctx, inReq)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/engine-rpc-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl MagickEngineServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterMagickEngineServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewMagickEngineClient(conn), nil
}

func PluginMap(impl MagickEngineServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
