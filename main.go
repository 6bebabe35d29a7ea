package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/shazow/wifictl/internal/config"
	"github.com/shazow/wifictl/internal/log"
	"github.com/shazow/wifictl/wifi"
	"github.com/shazow/wifictl/wifi/profilecache"
)

var (
	// Version is the version of the application. It is set at build time.
	Version string = "dev"
)

// env is what the subcommands share once the root flags are applied.
type env struct {
	cfg    config.Config
	client *wifi.Client
	cache  *profilecache.Cache
	out    io.Writer
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	var (
		rootFlagSet = flag.NewFlagSet("wifictl", flag.ExitOnError)
		configPath  = rootFlagSet.String("config", "", "path to config toml file (env: WIFICTL_CONFIG)")
		iface       = rootFlagSet.String("interface", "", "interface GUID or description to operate on")
		timeout     = rootFlagSet.Duration("timeout", 0, "how long to wait for a connection to complete")
		logLevel    = rootFlagSet.String("log-level", "", "log level: debug, info, warn or error")
		logFile     = rootFlagSet.String("log-file", "", "also write the log to this file")
		version     = rootFlagSet.Bool("version", false, "display version")
	)

	e := &env{out: os.Stdout}

	root := &ffcli.Command{
		ShortUsage: "wifictl [flags] <subcommand> [args...]",
		FlagSet:    rootFlagSet,
		Options:    []ff.Option{ff.WithEnvVarPrefix("WIFICTL")},
		Subcommands: []*ffcli.Command{
			listCommand(e),
			showCommand(e),
			connectCommand(e),
			forgetCommand(e),
			disconnectCommand(e),
			statusCommand(e),
			radioCommand(e),
			profilesCommand(e),
			watchCommand(e),
		},
		Exec: func(ctx context.Context, args []string) error {
			if *version {
				fmt.Fprintln(e.out, Version)
				return nil
			}
			rootFlagSet.Usage()
			return nil
		},
	}

	if err := root.Parse(args); err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return err
	}
	// Flags and environment take precedence over the file.
	var flagErr error
	rootFlagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "interface":
			cfg.Interface = *iface
		case "timeout":
			cfg.ConnectTimeout = *timeout
		case "log-file":
			cfg.LogFile = *logFile
		case "log-level":
			if err := cfg.LogLevel.UnmarshalText([]byte(*logLevel)); err != nil {
				flagErr = fmt.Errorf("invalid -log-level %q: %w", *logLevel, err)
			}
		}
	})
	if flagErr != nil {
		return flagErr
	}
	e.cfg = cfg

	var logOut io.Writer = os.Stderr
	if cfg.LogFile != "" {
		f, err := log.OpenFile(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = io.MultiWriter(os.Stderr, f)
	}
	logger := log.Init(logOut, cfg.LogLevel)

	if *version {
		return root.Run(ctx)
	}

	driver, err := GetDriver(logger)
	if err != nil {
		return err
	}
	e.client, err = wifi.NewClient(driver,
		wifi.WithLogger(logger),
		wifi.WithConnectTimeout(cfg.ConnectTimeout),
	)
	if err != nil {
		driver.Close()
		return err
	}
	defer e.client.Close()
	logger.Debug("client ready", "timeout", cfg.ConnectTimeout, "profile_dir", cfg.ProfileDir)
	e.cache = profilecache.New(cfg.ProfileDir)

	return root.Run(ctx)
}

func listCommand(e *env) *ffcli.Command {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	scan := fs.Bool("scan", false, "scan before listing")
	asJSON := fs.Bool("json", false, "output in JSON format")
	return &ffcli.Command{
		Name:      "list",
		ShortHelp: "List visible wifi networks",
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			return runList(ctx, e.out, e.client, listOptions{
				Interface: e.cfg.Interface,
				Scan:      *scan,
				JSON:      *asJSON,
			})
		},
	}
}

func showCommand(e *env) *ffcli.Command {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	opts := showOptions{}
	fs.BoolVar(&opts.QR, "qr", false, "print a QR code to join the network")
	fs.BoolVar(&opts.Plaintext, "plaintext", false, "read the stored key in the clear (requires admin)")
	fs.BoolVar(&opts.JSON, "json", false, "output in JSON format")
	return &ffcli.Command{
		Name:       "show",
		ShortUsage: "wifictl show [flags] <ssid>",
		ShortHelp:  "Show a wifi network",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("show requires an ssid")
			}
			return runShow(e.out, e.client, args[0], opts)
		},
	}
}

func connectCommand(e *env) *ffcli.Command {
	fs := flag.NewFlagSet("connect", flag.ExitOnError)
	opts := connectOptions{}
	fs.StringVar(&opts.Passphrase, "passphrase", "", "passphrase for the network (env: WIFICTL_PASSPHRASE)")
	fs.StringVar(&opts.Username, "username", "", "username for enterprise networks")
	fs.StringVar(&opts.Domain, "domain", "", "logon domain for enterprise networks")
	fs.BoolVar(&opts.Overwrite, "overwrite", false, "replace the stored profile")
	fs.BoolVar(&opts.Progress, "progress", false, "print progress while connecting")
	return &ffcli.Command{
		Name:       "connect",
		ShortUsage: "wifictl connect [flags] <ssid>",
		ShortHelp:  "Connect to a wifi network",
		FlagSet:    fs,
		Options:    []ff.Option{ff.WithEnvVarPrefix("WIFICTL")},
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("connect requires an ssid")
			}
			return runConnect(ctx, e.out, e.client, args[0], opts)
		},
	}
}

func forgetCommand(e *env) *ffcli.Command {
	return &ffcli.Command{
		Name:       "forget",
		ShortUsage: "wifictl forget <profile>",
		ShortHelp:  "Delete a stored profile",
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("forget requires a profile name")
			}
			return runForget(e.out, e.client, e.cfg.Interface, args[0])
		},
	}
}

func disconnectCommand(e *env) *ffcli.Command {
	return &ffcli.Command{
		Name:      "disconnect",
		ShortHelp: "Disconnect from the current network",
		Exec: func(ctx context.Context, args []string) error {
			return runDisconnect(e.out, e.client, e.cfg.Interface)
		},
	}
}

func statusCommand(e *env) *ffcli.Command {
	return &ffcli.Command{
		Name:      "status",
		ShortHelp: "Show interfaces and their connections",
		Exec: func(ctx context.Context, args []string) error {
			return runStatus(e.out, e.client, e.cfg.Interface)
		},
	}
}

func radioCommand(e *env) *ffcli.Command {
	return &ffcli.Command{
		Name:       "radio",
		ShortUsage: "wifictl radio on|off",
		ShortHelp:  "Turn the radio on or off",
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("radio requires on or off")
			}
			switch args[0] {
			case "on":
				return runRadio(e.out, e.client, e.cfg.Interface, true)
			case "off":
				return runRadio(e.out, e.client, e.cfg.Interface, false)
			default:
				return fmt.Errorf("invalid radio state: %s", args[0])
			}
		},
	}
}

func profilesCommand(e *env) *ffcli.Command {
	exportFlagSet := flag.NewFlagSet("export", flag.ExitOnError)
	exportPlaintext := exportFlagSet.Bool("plaintext", false, "export the key in the clear (requires admin)")
	exportCmd := &ffcli.Command{
		Name:       "export",
		ShortUsage: "wifictl profiles export [flags] <profile>",
		ShortHelp:  "Copy a stored profile into the profile cache",
		FlagSet:    exportFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("export requires a profile name")
			}
			return runExport(e.out, e.client, e.cache, e.cfg.Interface, args[0], *exportPlaintext)
		},
	}

	importFlagSet := flag.NewFlagSet("import", flag.ExitOnError)
	importOverwrite := importFlagSet.Bool("overwrite", false, "replace a stored profile of the same name")
	importCmd := &ffcli.Command{
		Name:       "import",
		ShortUsage: "wifictl profiles import [flags] <profile>",
		ShortHelp:  "Store a cached profile on the interface",
		FlagSet:    importFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("import requires a profile name")
			}
			return runImport(e.out, e.client, e.cache, e.cfg.Interface, args[0], *importOverwrite)
		},
	}

	cachedCmd := &ffcli.Command{
		Name:      "cached",
		ShortHelp: "List cached profiles",
		Exec: func(ctx context.Context, args []string) error {
			return runCached(e.out, e.cache)
		},
	}

	uncacheCmd := &ffcli.Command{
		Name:       "uncache",
		ShortUsage: "wifictl profiles uncache <profile>",
		ShortHelp:  "Remove a profile from the cache",
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("uncache requires a profile name")
			}
			return runUncache(e.out, e.cache, args[0])
		},
	}

	return &ffcli.Command{
		Name:        "profiles",
		ShortUsage:  "wifictl profiles [<subcommand>]",
		ShortHelp:   "List stored profiles or manage the profile cache",
		Subcommands: []*ffcli.Command{exportCmd, importCmd, cachedCmd, uncacheCmd},
		Exec: func(ctx context.Context, args []string) error {
			return runProfiles(e.out, e.client)
		},
	}
}

const (
	ScanFast = 2 * time.Second
	ScanSlow = 8 * time.Second
)

func watchCommand(e *env) *ffcli.Command {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	rescan := fs.Duration("rescan", 0, fmt.Sprintf("scan on this interval, e.g. %s or %s (0 disables)", ScanFast, ScanSlow))
	return &ffcli.Command{
		Name:      "watch",
		ShortHelp: "Print notifications until interrupted",
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			return runWatch(ctx, e.out, e.client, e.cfg.Interface, *rescan)
		},
	}
}
