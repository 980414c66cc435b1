package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/docopt/docopt-go"
	"github.com/golang/glog"

	"github.com/nasdf/docstore"
	"github.com/nasdf/docstore/config"
	"github.com/nasdf/docstore/core"
	dshttp "github.com/nasdf/docstore/http"
)

const DocstoreVersion = "0.1.0"

const usage = `Docstore.

Usage:
    docstore serve [--config=<config>] [--listen=<address>] [--verbose=<level>]
    docstore dump [--config=<config>] [--verbose=<level>] <collection>
    docstore export [--config=<config>] [--verbose=<level>] <collection> <file>
    docstore -h | --help
    docstore --version

Options:
    -h --help            Show this screen.
    --version            Show version.
    --config=<config>    YAML configuration file.
    --listen=<address>   Address the http server binds to.
    --verbose=<level>    Log verbosity [default: 0].`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], DocstoreVersion)
	if err != nil {
		panic(err)
	}

	flag.Set("logtostderr", "true")
	if verbose, err := opts.String("--verbose"); err == nil {
		flag.Set("v", verbose)
	}
	defer glog.Flush()

	cfg, err := loadConfig(opts)
	if err != nil {
		fail(err)
	}

	if serve_, _ := opts.Bool("serve"); serve_ {
		err = serve(cfg, opts)
	} else if dump_, _ := opts.Bool("dump"); dump_ {
		err = dump(cfg, opts)
	} else if export_, _ := opts.Bool("export"); export_ {
		err = export(cfg, opts)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	glog.Errorf("%v", err)
	glog.Flush()
	os.Exit(1)
}

func loadConfig(opts docopt.Opts) (config.Config, error) {
	path, err := opts.String("--config")
	if err != nil || path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func serve(cfg config.Config, opts docopt.Opts) error {
	if listen, err := opts.String("--listen"); err == nil && listen != "" {
		cfg.HTTP.Listen = listen
	}
	m, err := docstore.Open(cfg)
	if err != nil {
		return err
	}
	defer m.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:    cfg.HTTP.Listen,
		Handler: dshttp.Handler(m, cfg.HTTP.Secret),
	}
	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	glog.Infof("serving %s on %s", cfg.Root, cfg.HTTP.Listen)
	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func dump(cfg config.Config, opts docopt.Opts) error {
	name, _ := opts.String("<collection>")

	m, err := docstore.Open(cfg)
	if err != nil {
		return err
	}
	defer m.Shutdown()

	c, err := m.Collection(name)
	if err != nil {
		return err
	}
	docs, err := core.Dump(context.Background(), c)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(docs, "", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func export(cfg config.Config, opts docopt.Opts) error {
	name, _ := opts.String("<collection>")
	path, _ := opts.String("<file>")

	m, err := docstore.Open(cfg)
	if err != nil {
		return err
	}
	defer m.Shutdown()

	c, err := m.Collection(name)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	root, err := core.Export(context.Background(), c, file)
	if err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", root, path)
	return nil
}
