package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fulldump/box"
	"golang.org/x/sync/errgroup"

	"github.com/fulldump/scorepane/api"
	"github.com/fulldump/scorepane/configuration"
	"github.com/fulldump/scorepane/controller"
	"github.com/fulldump/scorepane/service"
	_ "github.com/fulldump/scorepane/toolkit/draft"
)

var VERSION = "dev"

// Bootstrap wires the controller, the service and the http api. start
// blocks until stop is called or a SIGINT/SIGTERM arrives.
func Bootstrap(c *configuration.Configuration) (start, stop func() error, err error) {
	start, stop, _, err = BootstrapAddr(c)
	return
}

// BootstrapAddr is Bootstrap that also reports the address actually bound,
// useful when HttpAddr asks for port 0.
func BootstrapAddr(c *configuration.Configuration) (start, stop func() error, addr string, err error) {

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: c.Level(),
	}))
	slog.SetDefault(logger)

	ctrl := controller.New(&controller.Config{
		EngineLocation: c.EngineLocation,
		Logger:         logger.With("component", "controller"),
	})

	s := service.NewService(ctrl, &service.Config{
		Options:      c.RenderOptions(),
		Viewport:     c.Viewport(),
		ResizeSettle: c.ResizeSettle(),
		Logger:       logger,
	})

	b := api.Build(s, c.Statics, VERSION)
	if c.EnableCompression {
		b.WithInterceptors(api.Compression)
	}
	b.WithInterceptors(
		api.AccessLog(logger.With("component", "access")),
		api.InterceptorUnavailable(s),
		api.RecoverFromPanic,
		api.PrettyErrorInterceptor,
	)

	server := &http.Server{
		Addr:    c.HttpAddr,
		Handler: box.Box2Http(b),
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		return nil, nil, "", fmt.Errorf("listen %s: %w", c.HttpAddr, err)
	}
	logger.Info("listening", "addr", ln.Addr().String(), "engine", c.EngineLocation)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	stop = func() error {
		cancel()
		return nil
	}

	start = func() error {
		g, gctx := errgroup.WithContext(ctx)

		g.Go(ctrl.Start)

		g.Go(func() error {
			err := server.Serve(ln)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})

		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down")
			shutdownErr := server.Shutdown(context.Background())
			ctrl.Stop()
			return shutdownErr
		})

		err := g.Wait()
		cancel()
		return err
	}

	return start, stop, ln.Addr().String(), nil
}
