package visualiser

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the MotionVisualiser service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// GetScene fetches the scene description.
func (c *Client) GetScene(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getSceneMethod, &structpb.Struct{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// StreamFrames opens the frame stream. req may be nil.
func (c *Client) StreamFrames(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], streamFramesMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
