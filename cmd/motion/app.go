package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/banshee-data/motion.report/internal/animation"
	"github.com/banshee-data/motion.report/internal/api"
	"github.com/banshee-data/motion.report/internal/config"
	"github.com/banshee-data/motion.report/internal/fsutil"
	"github.com/banshee-data/motion.report/internal/monitoring"
	"github.com/banshee-data/motion.report/internal/player"
	"github.com/banshee-data/motion.report/internal/render/plotimg"
	"github.com/banshee-data/motion.report/internal/render/terminal"
	"github.com/banshee-data/motion.report/internal/security"
	"github.com/banshee-data/motion.report/internal/timeutil"
	"github.com/banshee-data/motion.report/internal/visualiser"
)

// app wires one engine and player to the renderers a scene asks for.
type app struct {
	scene  config.Scene
	engine *animation.Engine
	player *player.Player

	png *plotimg.Renderer

	publisher    *visualiser.Publisher
	grpcServer   *visualiser.Server
	httpServer   *http.Server
	httpListener net.Listener
}

func newApp(scene config.Scene, out io.Writer, fs fsutil.FileSystem, clock timeutil.Clock) (*app, error) {
	domain, err := scene.TimeDomain()
	if err != nil {
		return nil, err
	}
	engine, err := animation.NewEngine(scene.Model, domain, scene.TrailCapacity)
	if err != nil {
		return nil, err
	}

	a := &app{
		scene:  scene,
		engine: engine,
		player: player.New(engine, player.Config{
			Interval: scene.FrameInterval,
			Repeat:   scene.Repeat,
			Clock:    clock,
		}),
	}

	if scene.HasRenderer(config.RendererTerminal) {
		cfg := terminal.DefaultConfig()
		cfg.Title = scene.Model.String()
		cfg.TrackMin, cfg.TrackMax = scene.TrackMin, scene.TrackMax
		cfg.CurvePadding = scene.CurvePadding
		a.player.AddRenderer(config.RendererTerminal, terminal.New(out, scene.Model, domain.TMin, domain.TMax, cfg))
	}

	if scene.HasRenderer(config.RendererPNG) {
		if err := security.ValidateOutputDir(scene.OutputDir); err != nil {
			return nil, err
		}
		cfg := plotimg.DefaultConfig()
		cfg.Dir = scene.OutputDir
		cfg.Stride = scene.PNGStride
		cfg.Title = scene.Model.String()
		cfg.TrackMin, cfg.TrackMax = scene.TrackMin, scene.TrackMax
		cfg.CurvePadding = scene.CurvePadding
		r, err := plotimg.New(fs, scene.Model, domain.TMin, domain.TMax, cfg)
		if err != nil {
			return nil, err
		}
		a.png = r
		a.player.AddRenderer(config.RendererPNG, r)
	}

	web := scene.HasRenderer(config.RendererWeb)
	rpc := scene.HasRenderer(config.RendererGRPC)
	if web || rpc {
		cfg := visualiser.DefaultConfig()
		cfg.ListenAddr = scene.GRPCAddr
		a.publisher = visualiser.NewPublisher(cfg)
		a.player.AddRenderer("publisher", a.publisher)

		info := visualiser.NewSceneInfo(engine, scene.TrackMin, scene.TrackMax)
		if rpc {
			a.grpcServer = visualiser.NewServer(a.publisher, info)
		}
		if web {
			srv := api.NewServer(a.publisher, engine, info, api.Config{CurvePadding: scene.CurvePadding})
			a.httpServer = &http.Server{
				Addr:              scene.ListenAddr,
				Handler:           api.LoggingMiddleware(srv.ServeMux()),
				ReadHeaderTimeout: 5 * time.Second,
			}
		}
	}

	return a, nil
}

// start opens listeners and writes the static curve image. Nothing is
// rendered yet.
func (a *app) start() error {
	if a.png != nil {
		if err := a.png.WriteCurves(); err != nil {
			return fmt.Errorf("write curves: %w", err)
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Start(); err != nil {
			return err
		}
	}
	if a.grpcServer != nil {
		if err := a.grpcServer.Start(); err != nil {
			a.stop()
			return err
		}
	}
	if a.httpServer != nil {
		lis, err := net.Listen("tcp", a.httpServer.Addr)
		if err != nil {
			a.stop()
			return fmt.Errorf("failed to listen on %s: %w", a.httpServer.Addr, err)
		}
		a.httpListener = lis
		go func() {
			monitoring.Logf("[API] Listening on http://%s", lis.Addr())
			if err := a.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				monitoring.Logf("[API] HTTP server error: %v", err)
			}
		}()
	}
	return nil
}

// run plays the animation. With limit > 0 it renders that many frames back
// to back; otherwise the player paces itself. A single pass that ends while
// remote viewers are attached keeps serving the final frame until ctx ends.
func (a *app) run(ctx context.Context, limit int) error {
	if limit > 0 {
		for i := 0; i < limit; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, done := a.player.Step(); done {
				break
			}
		}
		return nil
	}

	if err := a.player.Run(ctx); err != nil {
		return err
	}
	if a.publisher != nil {
		monitoring.Logf("[Motion] Animation finished; serving the final frame until interrupted")
		<-ctx.Done()
	}
	return nil
}

// stop shuts down the network renderers. It is safe to call more than once.
func (a *app) stop() {
	if a.httpServer != nil && a.httpListener != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			monitoring.Logf("[API] HTTP server shutdown error: %v", err)
			if err := a.httpServer.Close(); err != nil {
				monitoring.Logf("[API] HTTP server force close error: %v", err)
			}
		}
	}
	if a.grpcServer != nil {
		a.grpcServer.Stop()
	}
	if a.publisher != nil {
		a.publisher.Stop()
	}
}
