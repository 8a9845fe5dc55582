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
	PluginMapKey      = "writer"
	serviceName       = "scrollkitty.writer.v1.Writer"
	jsonCodecName     = "json"
	methodGetMetadata = "/" + serviceName + "/GetMetadata"
	methodWrite       = "/" + serviceName + "/Write"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SCROLLKITTY_WRITER",
	MagicCookieValue: "scrollkitty",
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
	Name    string `json:"name"`
	Version string `json:"version"`
}

// WriteRequest mirrors the narrative context a writer may use.
type WriteRequest struct {
	Trigger       string   `json:"trigger"`
	Band          string   `json:"band"`
	Health        int32    `json:"health"`
	DayPart       string   `json:"day_part"`
	LimitStatus   string   `json:"limit_status"`
	Used          string   `json:"used"`
	Limit         string   `json:"limit"`
	OverBy        string   `json:"over_by"`
	UnderBy       string   `json:"under_by"`
	Grants        int32    `json:"grants"`
	FirstUse      string   `json:"first_use"`
	LastUse       string   `json:"last_use"`
	TerminalTime  string   `json:"terminal_time"`
	Avoid         []string `json:"avoid"`
	VariationSeed uint64   `json:"variation_seed"`
	Attempt       int32    `json:"attempt"`
}

type WriteResponse struct {
	Text string `json:"text"`
}

type WriterServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Write(ctx context.Context, in *WriteRequest) (*WriteResponse, error)
}

type WriterClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Write(ctx context.Context, in *WriteRequest) (*WriteResponse, error)
}

type writerClient struct {
	conn *grpc.ClientConn
}

func NewWriterClient(conn *grpc.ClientConn) WriterClient {
	return &writerClient{conn: conn}
}

func (c *writerClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *writerClient) Write(ctx context.Context, in *WriteRequest) (*WriteResponse, error) {
	out := &WriteResponse{}
	if err := c.conn.Invoke(ctx, methodWrite, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterWriterServer(server grpc.ServiceRegistrar, impl WriterServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*WriterServer)(nil),
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
				MethodName: "Write",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &WriteRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Write(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodWrite}
					handler := func(ctx context.Context, req any) (any, error) {
						inReq, ok := req.(*WriteRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Write(ctx, inReq)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "writer-rpc-v1",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl WriterServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterWriterServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewWriterClient(conn), nil
}

func PluginMap(impl WriterServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
