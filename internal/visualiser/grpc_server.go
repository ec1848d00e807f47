package visualiser

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/motion.report/internal/animation"
	"github.com/banshee-data/motion.report/internal/monitoring"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "motion.v1.MotionVisualiser"

const (
	streamFramesMethod = "/" + ServiceName + "/StreamFrames"
	getSceneMethod     = "/" + ServiceName + "/GetScene"
)

// MotionVisualiserServer is the server API for the MotionVisualiser service.
// Messages are google.protobuf.Struct so clients need no generated code.
type MotionVisualiserServer interface {
	// StreamFrames streams frame updates until the client goes away. The
	// request may set "include_trail" (default true).
	StreamFrames(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error
	// GetScene returns the scene description.
	GetScene(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the MotionVisualiser service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MotionVisualiserServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetScene", Handler: getSceneHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamFrames", Handler: streamFramesHandler, ServerStreams: true},
	},
	Metadata: "motion/v1/visualiser.proto",
}

func getSceneHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MotionVisualiserServer).GetScene(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getSceneMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MotionVisualiserServer).GetScene(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func streamFramesHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(MotionVisualiserServer).StreamFrames(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

var _ MotionVisualiserServer = (*Server)(nil)

// Server serves the MotionVisualiser service from a Publisher.
type Server struct {
	publisher *Publisher
	scene     SceneInfo

	server   *grpc.Server
	listener net.Listener
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer creates a gRPC server backed by publisher.
func NewServer(publisher *Publisher, scene SceneInfo) *Server {
	// Frames are small; 4 MB covers a full trail with room to spare.
	const maxMsgSize = 4 * 1024 * 1024
	s := &Server{
		publisher: publisher,
		scene:     scene,
		stopCh:    make(chan struct{}),
		server: grpc.NewServer(
			grpc.MaxRecvMsgSize(maxMsgSize),
			grpc.MaxSendMsgSize(maxMsgSize),
		),
	}
	s.server.RegisterService(&ServiceDesc, s)
	return s
}

// Start listens on the publisher's ListenAddr and serves in the background.
func (s *Server) Start() error {
	addr := s.publisher.Config().ListenAddr
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = lis

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		monitoring.Logf("[gRPC] Listening on %s", lis.Addr())
		if err := s.server.Serve(lis); err != nil {
			monitoring.Logf("[gRPC] Server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop ends open streams and stops the server.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.server.GracefulStop()
		s.wg.Wait()
		monitoring.Logf("[gRPC] Server stopped")
	})
}

// GetScene returns the scene description.
func (s *Server) GetScene(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.scene.ToStruct()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode scene: %v", err)
	}
	return out, nil
}

// StreamFrames sends every frame of a new subscription, starting with the
// latest one.
func (s *Server) StreamFrames(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	includeTrail := true
	if v, ok := req.GetFields()["include_trail"]; ok {
		includeTrail = v.GetBoolValue()
	}

	sub, err := s.publisher.Subscribe("grpc")
	switch {
	case errors.Is(err, ErrTooManyClients):
		return status.Error(codes.ResourceExhausted, err.Error())
	case err != nil:
		return status.Error(codes.Unavailable, err.Error())
	}
	defer s.publisher.Unsubscribe(sub.ID)
	monitoring.Logf("[gRPC] StreamFrames started: client=%s include_trail=%v", sub.ID, includeTrail)

	send := func(u animation.FrameUpdate) error {
		msg, err := FrameToStruct(u, includeTrail)
		if err != nil {
			return status.Errorf(codes.Internal, "encode frame %d: %v", u.Frame, err)
		}
		return stream.Send(msg)
	}

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return status.Error(codes.Unavailable, "server stopping")
		case <-sub.Done:
			return status.Error(codes.Unavailable, "publisher stopped")
		case u := <-sub.Frames:
			if err := send(u); err != nil {
				monitoring.Logf("[gRPC] Send error: %v", err)
				return err
			}
		}
	}
}
