package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/companyzero/soundcore/internal/netutils"
	"github.com/decred/slog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// runPrometheusListener serves the metrics of reg on addr until ctx is done.
func runPrometheusListener(ctx context.Context, addr string, reg *prometheus.Registry, log slog.Logger) error {
	listeners, err := netutils.Listen(addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	promHandler := promhttp.InstrumentMetricHandler(
		reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)
	mux.Handle("/metrics", promHandler)
	hs := http.Server{
		BaseContext: func(net.Listener) context.Context { return ctx },
		Handler:     mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range listeners {
		l := l
		log.Infof("Exposing prometheus metrics on %s", l.Addr())
		g.Go(func() error {
			err := hs.Serve(l)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}

	<-gctx.Done()
	shutCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	hs.Shutdown(shutCtx)
	return g.Wait()
}
