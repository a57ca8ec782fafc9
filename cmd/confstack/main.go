// cmd/confstack/main.go
//
// confstack – inspect, validate, export, and serve the layered configuration.
//
// Life-cycle
// ----------
//
//  1. Start a bootstrap console logger so source discovery is visible.
//
//  2. Build the loader from the global flags (root, file, dotenv, secrets).
//
//  3. Load and validate.  Every violation is printed, not just the first.
//
//  4. Swap the bootstrap logger for the one LOGGING describes.
//
//  5. Run the sub-command.
//
// Sub-commands
// ------------
//
//	show     [--origins]              masked configuration as YAML
//	sources                           source report of one load attempt
//	check    [--db]                   validate; optionally ping the database
//	dump     yaml|dotenv [--out PATH] export, secrets masked or omitted
//	serve    [--listen ADDR]          admin API with /metrics and /reload
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/yanizio/confstack/internal/config"
	"github.com/yanizio/confstack/internal/database"
	"github.com/yanizio/confstack/internal/logger"
	"github.com/yanizio/confstack/internal/server"
	"github.com/yanizio/confstack/internal/settings"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cli holds the parsed flags of one invocation.
type cli struct {
	root       string
	file       string
	dotenv     string
	secretsDir string
	strictFile bool

	origins bool
	db      bool
	format  string
	out     string
	listen  string
}

func (c *cli) options(log *zap.SugaredLogger) []config.Option {
	opts := []config.Option{
		config.WithLogger(log),
		config.WithStrictFile(c.strictFile),
	}
	if c.root != "" {
		opts = append(opts, config.WithRoot(c.root))
	}
	if c.file != "" {
		opts = append(opts, config.WithFile(c.file))
	}
	if c.dotenv != "" {
		opts = append(opts, config.WithDotenv(c.dotenv))
	}
	if c.secretsDir != "" {
		opts = append(opts, config.WithSecretsDir(c.secretsDir))
	}
	return opts
}

// run parses args, executes one sub-command, and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	var c cli

	app := kingpin.New("confstack", "Layered configuration loader: secrets > environment > dotenv > YAML > defaults.")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.Flag("root", "Project root (default: $"+config.RootEnv+", then discovery).").StringVar(&c.root)
	app.Flag("file", "YAML file, relative to the root.").Default(config.DefaultFile).StringVar(&c.file)
	app.Flag("dotenv", "Dotenv file, relative to the root.").Default(config.DefaultDotenv).StringVar(&c.dotenv)
	app.Flag("secrets-dir", "Directory of one-file-per-key secrets.").Default(config.DefaultSecretsDir).StringVar(&c.secretsDir)
	app.Flag("strict-file", "Fail when the YAML file cannot be parsed instead of ignoring it.").BoolVar(&c.strictFile)

	show := app.Command("show", "Print the masked configuration as YAML.")
	show.Flag("origins", "Print KEY, value, and winning source instead.").BoolVar(&c.origins)

	sources := app.Command("sources", "Print which sources were found.")

	check := app.Command("check", "Validate the configuration.")
	check.Flag("db", "Also ping the database and check its schemas.").BoolVar(&c.db)

	dump := app.Command("dump", "Export the configuration.")
	dump.Arg("format", "yaml or dotenv.").Required().EnumVar(&c.format, "yaml", "dotenv")
	dump.Flag("out", "Write to this file (mode 0600) instead of stdout.").StringVar(&c.out)

	serve := app.Command("serve", "Serve the admin API.")
	serve.Flag("listen", "Listen address.").Default(":8080").StringVar(&c.listen)

	cmd, err := app.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "confstack: %v\n", err)
		return 2
	}

	boot := logger.Bootstrap()
	defer func() { _ = boot.Sync() }()

	loader := settings.NewLoader(c.options(boot)...)

	// sources reports on a load attempt whether or not it succeeded.
	if cmd == sources.FullCommand() {
		_, _ = loader.Get()
		fmt.Fprintln(stdout, config.Report(loader.Sources()))
		return 0
	}

	cfg, err := load(loader, stderr)
	if err != nil {
		return 1
	}

	switch cmd {
	case show.FullCommand():
		if c.origins {
			err = printOrigins(stdout, cfg)
		} else {
			err = config.DumpYAML(stdout, cfg)
		}
	case check.FullCommand():
		err = runCheck(loader, c.db, stdout)
	case dump.FullCommand():
		err = runDump(c.format, c.out, cfg, stdout)
	case serve.FullCommand():
		err = runServe(loader, c.listen)
	}
	if err != nil {
		fmt.Fprintf(stderr, "confstack: %v\n", err)
		return 1
	}
	return 0
}

// load validates once and prints every violation on failure.
func load(loader *config.Loader[*settings.App], stderr io.Writer) (*config.Config, error) {
	cfg, err := loader.Config()
	if err == nil {
		return cfg, nil
	}
	var ve *config.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintf(stderr, "configuration invalid, %d problem(s):\n", len(ve.Violations))
		for _, v := range ve.Violations {
			fmt.Fprintf(stderr, "  - %s\n", v.Error())
		}
		return nil, err
	}
	fmt.Fprintf(stderr, "confstack: %v\n", err)
	return nil, err
}

func printOrigins(w io.Writer, cfg *config.Config) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
	for _, k := range cfg.Keys() {
		origin, _ := cfg.Origin(k)
		val := cfg.String(k)
		if !cfg.Has(k) {
			val = "<null>"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", k, val, origin)
	}
	return tw.Flush()
}

func runCheck(loader *config.Loader[*settings.App], withDB bool, stdout io.Writer) error {
	app, err := loader.Get()
	if err != nil {
		return err
	}
	log, err := logger.New(app.Logging, app.ServiceName)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if withDB {
		ctx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
		defer cancel()
		db, err := database.Open(ctx, app.DB)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		log.Infow("database reachable", "host", app.DB.Host, "port", app.DB.Port, "schemas", app.DB.SchemaNames)
	}
	fmt.Fprintln(stdout, "configuration OK")
	return nil
}

func runDump(format, out string, cfg *config.Config, stdout io.Writer) error {
	switch {
	case format == "yaml" && out != "":
		return config.WriteYAMLFile(out, cfg)
	case format == "yaml":
		return config.DumpYAML(stdout, cfg)
	case out != "":
		return config.WriteDotenvFile(out, cfg)
	default:
		return config.DumpDotenv(stdout, cfg)
	}
}

func runServe(loader *config.Loader[*settings.App], listen string) error {
	app, err := loader.Get()
	if err != nil {
		return err
	}
	log, err := logger.New(app.Logging, app.ServiceName)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(listen, server.Router(loader, log))
	return server.Run(ctx, srv, log)
}
