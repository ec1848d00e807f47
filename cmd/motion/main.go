// Command motion animates a particle whose position follows a cubic
// polynomial s(t) = a·t³ + b·t² + c·t + d. Each frame shows the particle on a
// horizontal track with a fading trail, alongside its position, velocity and
// acceleration curves.
//
// Usage:
//
//	go run ./cmd/motion [flags]
//
// Flags:
//
//	-config   Scene file (.json, .yaml or .yml); defaults to the reference scene
//	-render   Comma-separated renderers: terminal,png,web,grpc
//	-out      PNG output directory
//	-listen   HTTP listen address for the web renderer
//	-grpc     gRPC listen address for the grpc renderer
//	-once     Play the time domain once instead of looping
//	-frames   Render N frames back to back and exit
//	-version  Print version and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/banshee-data/motion.report/internal/config"
	"github.com/banshee-data/motion.report/internal/fsutil"
	"github.com/banshee-data/motion.report/internal/timeutil"
	"github.com/banshee-data/motion.report/internal/version"
)

var (
	configPath  = flag.String("config", "", "Scene config file (.json, .yaml or .yml)")
	renderList  = flag.String("render", "", "Comma-separated renderers overriding the config (terminal,png,web,grpc)")
	outDir      = flag.String("out", "", "PNG output directory (overrides output_dir)")
	listen      = flag.String("listen", "", "HTTP listen address (overrides listen_addr)")
	grpcAddr    = flag.String("grpc", "", "gRPC listen address (overrides grpc_addr)")
	once        = flag.Bool("once", false, "Play the time domain once instead of looping")
	frames      = flag.Int("frames", 0, "Render this many frames without pacing and exit (0 = real time)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// overrides carries command-line values that replace scene config fields.
type overrides struct {
	Renderers string
	OutputDir string
	Listen    string
	GRPC      string
	Once      bool
}

// loadScene reads path (or the reference scene when path is empty), applies
// the overrides and validates the result.
func loadScene(path string, o overrides) (config.Scene, error) {
	cfg := config.DefaultSceneConfig()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Scene{}, err
		}
		cfg = loaded
	}

	if o.Renderers != "" {
		cfg.Renderers = nil
		for _, name := range strings.Split(o.Renderers, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.Renderers = append(cfg.Renderers, name)
			}
		}
	}
	if o.OutputDir != "" {
		cfg.OutputDir = &o.OutputDir
	}
	if o.Listen != "" {
		cfg.ListenAddr = &o.Listen
	}
	if o.GRPC != "" {
		cfg.GRPCAddr = &o.GRPC
	}
	if o.Once {
		repeat := false
		cfg.Repeat = &repeat
	}
	return cfg.Scene()
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *frames < 0 {
		log.Fatal("-frames must not be negative")
	}

	scene, err := loadScene(*configPath, overrides{
		Renderers: *renderList,
		OutputDir: *outDir,
		Listen:    *listen,
		GRPC:      *grpcAddr,
		Once:      *once,
	})
	if err != nil {
		log.Fatalf("Failed to load scene: %v", err)
	}

	a, err := newApp(scene, os.Stdout, fsutil.OSFileSystem{}, timeutil.RealClock{})
	if err != nil {
		log.Fatalf("Failed to build renderers: %v", err)
	}
	if err := a.start(); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, *frames); err != nil && err != context.Canceled {
		log.Printf("Animation stopped: %v", err)
	}

	log.Printf("Shutting down...")
	a.stop()
	log.Printf("Graceful shutdown complete")
}
