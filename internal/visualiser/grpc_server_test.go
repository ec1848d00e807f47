package visualiser

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/motion.report/internal/animation"
)

func startTestServer(t *testing.T) (*Publisher, *Server, *Client) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	pub := NewPublisher(cfg)
	if err := pub.Start(); err != nil {
		t.Fatalf("publisher Start failed: %v", err)
	}

	srv := NewServer(pub, SceneInfo{Formula: "s(t) = t", TMax: 5, Dt: 0.05, FrameCount: 100})
	if err := srv.Start(); err != nil {
		pub.Stop()
		t.Fatalf("server Start failed: %v", err)
	}

	conn, err := grpc.NewClient(srv.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		srv.Stop()
		pub.Stop()
		t.Fatalf("NewClient failed: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
		pub.Stop()
	})
	return pub, srv, NewClient(conn)
}

func TestServer_GetScene(t *testing.T) {
	_, _, client := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	scene, err := client.GetScene(ctx)
	if err != nil {
		t.Fatalf("GetScene failed: %v", err)
	}
	fields := scene.GetFields()
	if got := fields["formula"].GetStringValue(); got != "s(t) = t" {
		t.Errorf("formula = %q", got)
	}
	if got := fields["frame_count"].GetNumberValue(); got != 100 {
		t.Errorf("frame_count = %v, want 100", got)
	}
}

func TestServer_StreamFrames(t *testing.T) {
	pub, _, client := startTestServer(t)

	if err := pub.Render(animation.FrameUpdate{Frame: 0, Position: -5, Trail: []float64{-5}}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.StreamFrames(ctx, nil)
	if err != nil {
		t.Fatalf("StreamFrames failed: %v", err)
	}

	// The latest frame arrives first, after which the subscription is live.
	msg, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	u, err := FrameFromStruct(msg)
	if err != nil {
		t.Fatalf("FrameFromStruct failed: %v", err)
	}
	if u.Frame != 0 || u.Position != -5 || len(u.Trail) != 1 {
		t.Errorf("unexpected first frame: %+v", u)
	}

	if err := pub.Render(animation.FrameUpdate{Frame: 1, Time: 0.05, Position: -3.8, Trail: []float64{-5, -3.8}}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	msg, err = stream.Recv()
	if err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	u, err = FrameFromStruct(msg)
	if err != nil {
		t.Fatalf("FrameFromStruct failed: %v", err)
	}
	if u.Frame != 1 || len(u.Trail) != 2 {
		t.Errorf("unexpected second frame: %+v", u)
	}
}

func TestServer_StreamFramesWithoutTrail(t *testing.T) {
	pub, _, client := startTestServer(t)
	if err := pub.Render(animation.FrameUpdate{Frame: 7, Trail: []float64{1, 2, 3}}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := structpb.NewStruct(map[string]any{"include_trail": false})
	stream, err := client.StreamFrames(ctx, req)
	if err != nil {
		t.Fatalf("StreamFrames failed: %v", err)
	}
	msg, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	if _, ok := msg.GetFields()["trail"]; ok {
		t.Error("expected trail to be omitted")
	}
}

func TestServer_StopEndsStreams(t *testing.T) {
	pub, srv, client := startTestServer(t)
	if err := pub.Render(animation.FrameUpdate{Frame: 0}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.StreamFrames(ctx, nil)
	if err != nil {
		t.Fatalf("StreamFrames failed: %v", err)
	}
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("Recv failed: %v", err)
	}

	srv.Stop()
	if _, err := stream.Recv(); err == nil {
		t.Error("expected stream to end after Stop")
	}
	waitFor(t, "subscriber removal", func() bool { return pub.Stats().ClientCount == 0 })
}
