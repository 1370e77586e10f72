package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/ttpr0/go-transit/metrics"
	"golang.org/x/exp/slog"
)

const USAGE = `usage: go-transit <command> [flags]

commands:
  build   build a model from the configured timetable source
  query   print the connections between two stops
  serve   answer connection queries over http
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, USAGE)
		os.Exit(2)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "build":
		err = RunBuild(ctx, os.Args[2:])
	case "query":
		err = RunQuery(ctx, os.Args[2:])
	case "serve":
		err = RunServe(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, USAGE)
		os.Exit(2)
	}
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func _Setup(flags *flag.FlagSet, args []string) (Config, error) {
	config_file := flags.String("config", "./config.yaml", "path of the config file")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	if v := os.Getenv(ENV_PREFIX + "CONFIG"); v != "" && !_IsFlagSet(flags, "config") {
		*config_file = v
	}
	config, err := ReadConfig(*config_file)
	if err != nil {
		return config, err
	}
	if err := InitLogging(os.Stderr, config.LogLevel); err != nil {
		return config, err
	}
	return config, nil
}

func _IsFlagSet(flags *flag.FlagSet, name string) bool {
	found := false
	flags.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

//**********************************************************
// commands
//**********************************************************

func RunBuild(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("build", flag.ContinueOnError)
	config, err := _Setup(flags, args)
	if err != nil {
		return err
	}
	model, err := BuildAndStoreModel(ctx, config, metrics.NewCollector())
	if err != nil {
		return err
	}
	defer model.Close()
	slog.Info(fmt.Sprintf("stored model with %v vertices and %v edges at %v", model.Graph.VertexCount(), model.Graph.EdgeCount(), config.Model.Path))
	return nil
}

func RunQuery(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("query", flag.ContinueOnError)
	from := flags.String("from", "", "comma separated origin stop ids")
	to := flags.String("to", "", "comma separated destination stop ids")
	date_str := flags.String("date", time.Now().Format("2006-01-02"), "service date")
	config, err := _Setup(flags, args)
	if err != nil {
		return err
	}
	date, err := ParseQueryDate(*date_str)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", *date_str, err)
	}

	manager, err := NewModelManager(ctx, config, metrics.NewCollector())
	if err != nil {
		return err
	}
	defer manager.Close()

	from_stops, err := ResolveStops(manager.Model(), *from)
	if err != nil {
		return err
	}
	to_stops, err := ResolveStops(manager.Model(), *to)
	if err != nil {
		return err
	}
	conns := manager.FindConnections(date, from_stops, to_stops)
	PrintConnections(os.Stdout, manager.Model(), date, conns)
	return nil
}

func RunServe(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	config, err := _Setup(flags, args)
	if err != nil {
		return err
	}
	collector := metrics.NewCollector()
	manager, err := NewModelManager(ctx, config, collector)
	if err != nil {
		return err
	}
	defer manager.Close()

	app := httprouter.New()
	RegisterRoutes(app, manager)
	if config.Services.Metrics {
		app.Handler("GET", "/metrics", collector.Handler())
	}

	srv := &http.Server{Addr: config.Services.Listen, Handler: app}
	go func() {
		<-ctx.Done()
		shutdown_ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown_ctx)
	}()
	slog.Info(fmt.Sprintf("listening on %v", config.Services.Listen))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
