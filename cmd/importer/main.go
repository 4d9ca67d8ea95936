// Command importer loads stops, routes and route-stop links from batch
// files into the database, or clears all of them.
//
//	importer [flags] <stops|routes|route-stops|all|clear>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"

	"bus_tracker/internal/config"
	"bus_tracker/internal/importer"
	"bus_tracker/internal/logger"
	"bus_tracker/internal/store"
)

const (
	cmdAll   = "all"
	cmdClear = "clear"
)

type options struct {
	dataDir string
	stops   string
	routes  string
	links   string
	yes     bool
	command string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "configuration: %v\n", err)
		return 1
	}

	opts, code, ok := parseArgs(args, settings.ImportDataDir, stderr)
	if !ok {
		return code
	}

	if err := logger.Setup(logger.Options{Level: settings.LogLevel, Stdout: true, Colors: true}); err != nil {
		fmt.Fprintf(stderr, "logging: %v\n", err)
		return 1
	}

	if opts.command == cmdClear && settings.Production() && !opts.yes {
		fmt.Fprintln(stderr, "refusing to clear a production database without -yes")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDB(ctx, settings)
	if err != nil {
		logrus.WithError(err).Error("Import failed")
		return 1
	}
	defer config.Close(db)

	if err := execute(ctx, store.New(db), opts, stdout); err != nil {
		logrus.WithError(err).Error("Import failed")
		return 1
	}
	return 0
}

// parseArgs returns ok=false with the exit code when the process should
// stop after printing usage.
func parseArgs(args []string, defaultDataDir string, stderr io.Writer) (options, int, bool) {
	var opts options
	fs := flag.NewFlagSet("importer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.dataDir, "data", defaultDataDir, "directory holding the import files")
	fs.StringVar(&opts.stops, "stops", "stops.json", "stops file, relative to -data")
	fs.StringVar(&opts.routes, "routes", "routes.json", "routes file, relative to -data")
	fs.StringVar(&opts.links, "links", "route_stops.json", "route-stops file, relative to -data")
	fs.BoolVar(&opts.yes, "yes", false, "confirm clear when APP_ENV=production")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: importer [flags] <stops|routes|route-stops|all|clear>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, 0, false
		}
		return opts, 1, false
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return opts, 0, false
	}
	opts.command = fs.Arg(0)
	if !knownCommand(opts.command) {
		fmt.Fprintf(stderr, "unknown command %q\n", opts.command)
		fs.Usage()
		return opts, 1, false
	}
	return opts, 0, true
}

func knownCommand(cmd string) bool {
	if cmd == cmdAll || cmd == cmdClear {
		return true
	}
	for _, s := range importer.AllStages {
		if string(s) == cmd {
			return true
		}
	}
	return false
}

func (o options) sources() importer.Sources {
	return importer.Sources{
		Stops:  resolve(o.dataDir, o.stops),
		Routes: resolve(o.dataDir, o.routes),
		Links:  resolve(o.dataDir, o.links),
	}
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func execute(ctx context.Context, entities importer.Entities, opts options, out io.Writer) error {
	r := importer.New(entities, importer.LogSink{Logger: logrus.StandardLogger()})

	if opts.command == cmdClear {
		cleared, err := r.Clear(ctx)
		if err != nil {
			return err
		}
		for _, c := range cleared {
			fmt.Fprintf(out, "%-12s deleted %d\n", c.Kind, c.Deleted)
		}
		return nil
	}

	stages := importer.AllStages
	if opts.command != cmdAll {
		stages = []importer.Stage{importer.Stage(opts.command)}
	}
	rep, err := r.Run(ctx, opts.sources(), stages...)
	if rep != nil {
		printReport(out, rep)
	}
	return err
}

func printReport(out io.Writer, rep *importer.Report) {
	fmt.Fprintf(out, "run %s\n", rep.RunID)
	for _, s := range rep.Stages {
		fmt.Fprintf(out, "%-12s created %d, skipped %d, errors %d\n", s.Stage, s.Created, s.Skipped, s.Errors)
	}
}
