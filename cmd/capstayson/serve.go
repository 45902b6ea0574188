package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/capstayson/internal/server"
)

type serveCmd struct {
	*root
	fs        *flag.FlagSet
	listen    string
	rate      float64
	burst     int
	maxUpload int64
}

func (s *serveCmd) Program() string { return s.root.program + " serve" }

func (s *serveCmd) FlagSet() *flag.FlagSet { return s.fs }

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	def := server.DefaultConfig()
	s := &serveCmd{root: r, fs: newFlagSet("serve")}
	s.fs.StringVar(&s.listen, "listen", r.config.Feed.Listen, "address to listen on")
	s.fs.Float64Var(&s.rate, "rate", def.RatePerSecond, "POST requests per second allowed per client, 0 disables limiting")
	s.fs.IntVar(&s.burst, "burst", def.Burst, "burst size for the rate limiter")
	s.fs.Int64Var(&s.maxUpload, "max-upload", def.MaxUploadBytes, "largest accepted upload in bytes")
	if err := parseFlags(s.fs, args, s); err != nil {
		return nil, err
	}
	if s.fs.NArg() != 0 {
		return nil, &UsageError{of: s}
	}
	return s, nil
}

func (s *serveCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeFn, err := s.openFeed(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	srv := server.New(store, server.Config{
		SiteURL:        s.site(),
		MaxUploadBytes: s.maxUpload,
		RatePerSecond:  s.rate,
		Burst:          s.burst,
	}, s.log.Named("http"))
	s.log.Info("serving feed", zap.String("listen", s.listen), zap.String("site", s.site()))
	return srv.ListenAndServe(ctx, s.listen)
}
