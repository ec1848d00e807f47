// Command motion-watch connects to a running motion gRPC renderer and prints
// each frame as a line of text.
//
// Usage:
//
//	go run ./cmd/tools/motion-watch [flags]
//
// Flags:
//
//	-addr    Server address (default: localhost:50051)
//	-n       Stop after this many frames (default: 0, unlimited)
//	-trail   Request trail positions with each frame
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/motion.report/internal/visualiser"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "Server address")
	limit := flag.Int("n", 0, "Stop after this many frames (0 = unlimited)")
	trail := flag.Bool("trail", false, "Request trail positions with each frame")
	flag.Parse()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", *addr, err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := watch(ctx, visualiser.NewClient(conn), os.Stdout, *limit, *trail); err != nil {
		log.Fatalf("Watch failed: %v", err)
	}
}

// watch prints the scene header and then one line per streamed frame until
// limit frames have arrived, the server ends the stream or ctx is cancelled.
func watch(ctx context.Context, client *visualiser.Client, w io.Writer, limit int, trail bool) error {
	scene, err := client.GetScene(ctx)
	if err != nil {
		return fmt.Errorf("get scene: %w", err)
	}
	fmt.Fprintf(w, "%s  t in [%g, %g] s\n",
		scene.GetFields()["formula"].GetStringValue(),
		scene.GetFields()["t_min"].GetNumberValue(),
		scene.GetFields()["t_max"].GetNumberValue())

	req, err := structpb.NewStruct(map[string]any{"include_trail": trail})
	if err != nil {
		return err
	}
	stream, err := client.StreamFrames(ctx, req)
	if err != nil {
		return fmt.Errorf("stream frames: %w", err)
	}

	for n := 0; limit <= 0 || n < limit; n++ {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return nil
			}
			return err
		}
		u, err := visualiser.FrameFromStruct(msg)
		if err != nil {
			return err
		}

		line := fmt.Sprintf("frame %4d  t=%5.2f  s=%8.2f  v=%8.2f  a=%8.2f",
			u.Frame, u.Time, u.Position, u.Velocity, u.Acceleration)
		if trail {
			parts := make([]string, len(u.Trail))
			for i, x := range u.Trail {
				parts[i] = fmt.Sprintf("%.1f", x)
			}
			line += "  trail=[" + strings.Join(parts, " ") + "]"
		}
		if u.Terminated {
			line += "  (end)"
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
