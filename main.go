package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	cli "github.com/jawher/mow.cli"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/spartronics4915/camstream/internal/camera"
	"github.com/spartronics4915/camstream/internal/comm"
	"github.com/spartronics4915/camstream/internal/stream"
	"github.com/spartronics4915/camstream/internal/vision"
)

const (
	appName = "camstream"
	appDesc = "mjpeg camera relay with an optional vision pipeline"

	roborioAddr = "10.49.15.2"
)

func main() {
	app := cli.App(appName, appDesc)

	port := app.Int(cli.IntOpt{
		Name:   "port",
		Desc:   "HTTP listen port",
		EnvVar: "CAMSTREAM_PORT",
		Value:  5080,
	})

	robot := app.String(cli.StringOpt{
		Name:   "robot",
		Desc:   "robot host for vision publication (none, localhost, roborio, or a hostname)",
		EnvVar: "CAMSTREAM_ROBOT",
		Value:  "none",
	})

	device := app.String(cli.StringOpt{
		Name:   "device",
		Desc:   "video4linux capture device",
		EnvVar: "CAMSTREAM_DEVICE",
		Value:  "/dev/video0",
	})

	quality := app.Int(cli.IntOpt{
		Name:   "quality",
		Desc:   "JPEG quality for algorithm-filtered streams",
		EnvVar: "CAMSTREAM_QUALITY",
		Value:  50,
	})

	directQuality := app.Int(cli.IntOpt{
		Name:   "direct-quality",
		Desc:   "camera-side JPEG quality for direct streams",
		EnvVar: "CAMSTREAM_DIRECT_QUALITY",
		Value:  80,
	})

	metricsAddr := app.String(cli.StringOpt{
		Name:   "metrics",
		Desc:   "listen address for prometheus metrics (empty disables)",
		EnvVar: "CAMSTREAM_METRICS",
		Value:  "",
	})

	app.Action = func() {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var robotLink comm.Channel
		if *robot != "none" {
			host := *robot
			if host == "roborio" {
				host = roborioAddr
			}
			robotLink = comm.NewService(host)
		}

		handler := stream.NewService(
			camera.NewService(camera.NewV4L2Driver(*device, *directQuality)),
			vision.NewService(),
			robotLink,
			stream.Config{
				Camera: camera.Config{
					Width:        640,
					Height:       480,
					FrameRate:    60,
					AutoExposure: false,
				},
				Quality: *quality,
				Pace:    50 * time.Millisecond,
			},
		)

		server := &http.Server{
			Addr:    fmt.Sprintf(":%d", *port),
			Handler: handler,
		}

		group, ctx := errgroup.WithContext(ctx)

		group.Go(func() error {
			log.Infof("server started on %s", server.Addr)
			err := server.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})

		if *metricsAddr != "" {
			metrics := &http.Server{Addr: *metricsAddr, Handler: promhttp.Handler()}
			group.Go(func() error {
				log.Infof("metrics on %s", metrics.Addr)
				err := metrics.ListenAndServe()
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			})
			group.Go(func() error {
				<-ctx.Done()
				return metrics.Close()
			})
		}

		group.Go(func() error {
			<-ctx.Done()
			log.Info("aborting server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				// Streaming sessions never drain on their own.
				return server.Close()
			}
			return nil
		})

		if err := group.Wait(); err != nil {
			log.WithError(err).Panic("stopped")
		}
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Panic("failed to execute application")
	}
}
