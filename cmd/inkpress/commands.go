package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/eringen/inkpress"
	"github.com/eringen/inkpress/cms"
)

// openSource returns the content source selected by CMS_DRIVER and a
// function releasing it.
func openSource(cfg inkpress.SiteConfig) (inkpress.Source, func() error, error) {
	switch driver() {
	case "api":
		client, err := cms.New(cmsConfig(cfg))
		if err != nil {
			return nil, nil, err
		}
		return cms.NewRepository(client), func() error { return nil }, nil
	case "sqlite":
		store, err := inkpress.NewStore(databasePath())
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown CMS_DRIVER %q (want api or sqlite)", driver())
	}
}

func newApp() (*inkpress.App, func() error, error) {
	cfg, err := siteConfig()
	if err != nil {
		return nil, nil, err
	}
	src, closeSource, err := openSource(cfg)
	if err != nil {
		return nil, nil, err
	}
	var opts []inkpress.Option
	if dir := os.Getenv("IMAGE_DIR"); dir != "" {
		opts = append(opts, inkpress.WithImageDir(dir))
	}
	if dir := os.Getenv("STATIC_DIR"); dir != "" {
		opts = append(opts, inkpress.WithStaticDir(dir))
	}
	app := inkpress.New(cfg, src, opts...)
	app.Echo.Logger.SetLevel(logLevel())
	return app, closeSource, nil
}

func runServe() error {
	app, closeSource, err := newApp()
	if err != nil {
		return err
	}
	defer closeSource()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start(ctx) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	app.Echo.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

func runBuild(dir string) error {
	app, closeSource, err := newApp()
	if err != nil {
		return err
	}
	defer closeSource()

	n, err := app.Export(context.Background(), dir)
	if err != nil {
		return err
	}
	log.Infof("wrote %d pages to %s", n, dir)
	return nil
}

func openLocalStore() (*inkpress.Store, error) {
	if driver() != "sqlite" {
		return nil, errors.New("this command needs the local dataset: set CMS_DRIVER=sqlite")
	}
	return inkpress.NewStore(databasePath())
}

func runSeed(path string) error {
	store, err := openLocalStore()
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ds, err := inkpress.LoadDataset(f)
	if err != nil {
		return err
	}
	if err := store.Import(context.Background(), ds); err != nil {
		return err
	}
	log.Infof("imported %d authors, %d posts, %d comments into %s",
		len(ds.Authors), len(ds.Posts), len(ds.Comments), databasePath())
	return nil
}

func runApprove(id string) error {
	store, err := openLocalStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if id == "" {
		pending, err := store.PendingComments(ctx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println("No comments awaiting approval.")
			return nil
		}
		for _, c := range pending {
			fmt.Printf("%s  post=%s  %s <%s>: %s\n", c.ID, c.Post.Ref, c.Name, c.Email, c.Comment)
		}
		return nil
	}
	if err := store.ApproveComment(ctx, id, true); err != nil {
		return err
	}
	log.Infof("approved comment %s", id)
	return nil
}
