package main

import (
	"log"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/rprtr258/timeline/internal/config"
	"github.com/rprtr258/timeline/internal/post"
	"github.com/rprtr258/timeline/internal/web"
	filters "github.com/rprtr258/timeline/pkg"
)

// loadConfig reads the config file and applies flag overrides on top.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg, err := config.LoadOptional(ctx.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	if ctx.IsSet("addr") {
		cfg.Server.Addr = ctx.String("addr")
	}
	if ctx.IsSet("posts-dir") {
		cfg.Storage.PostsDir = ctx.String("posts-dir")
	}
	if ctx.IsSet("log-level") {
		cfg.Log.Level = ctx.String("log-level")
	}
	return cfg, cfg.Validate()
}

func serve(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	filters.SetLogger(logger)

	posts, err := post.NewStore(cfg.Storage.PostsDir)
	if err != nil {
		return err
	}

	filterer := filters.New(
		filters.WithWorkers(cfg.Filters.Workers),
		filters.WithLogger(logger),
	)
	srv := web.New(filterer, posts, logger, web.Config{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		PreviewSide:    cfg.Filters.PreviewSide,
	})

	s := &http.Server{
		Addr:           cfg.Server.Addr,
		Handler:        srv.Handler(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
	logger.Info("listening", "addr", cfg.Server.Addr, "posts_dir", posts.Dir())
	return s.ListenAndServe()
}

func main() {
	if err := (&cli.App{
		Name:  "timelineweb",
		Usage: "photo timeline web editor",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.Filename,
				Usage:   "config file, defaults are used if it is missing",
				EnvVars: []string{"TIMELINE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "listen address",
				EnvVars: []string{"TIMELINE_ADDR"},
			},
			&cli.StringFlag{
				Name:    "posts-dir",
				Usage:   "directory for stored posts",
				EnvVars: []string{"TIMELINE_POSTS_DIR"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				EnvVars: []string{"TIMELINE_LOG_LEVEL"},
			},
		},
		Action: serve,
	}).Run(os.Args); err != nil {
		log.Fatal(err.Error())
	}
}
