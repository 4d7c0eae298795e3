package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/agileandy/bbcbasic/pkg/configuration"
	"github.com/agileandy/bbcbasic/pkg/console"
	"github.com/agileandy/bbcbasic/pkg/interpreter"
	"github.com/agileandy/bbcbasic/pkg/logger"
	"github.com/agileandy/bbcbasic/pkg/shell"
	"github.com/agileandy/bbcbasic/pkg/store"
	"github.com/agileandy/bbcbasic/pkg/terminal"
	tlsmanager "github.com/agileandy/bbcbasic/pkg/tls"
)

const banner = "BBC BASIC"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "settings.cfg", "configuration file")
	serve := flag.Bool("serve", false, "start the websocket terminal server")
	trace := flag.Bool("trace", false, "dump each parsed line")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [program.bas]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Configuration comes first; the logger reads its settings from it.
	if err := configuration.Initialize(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing configuration: %v\n", err)
		return 1
	}
	if err := logger.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		return 1
	}
	defer logger.Close()
	logger.ConfigInfo("Configuration loaded from: %s", *configPath)

	opts := interpreter.OptionsFromConfig()
	if *trace {
		opts.TraceParse = true
	}

	switch {
	case *serve:
		return runServer(opts)
	case flag.NArg() > 0:
		return runFile(flag.Arg(0), opts)
	default:
		return runConsole(opts)
	}
}

func programLibrary() shell.Library {
	return shell.NewDirLibrary(configuration.GetString("Store", "program_dir", "."))
}

// runFile loads a program and runs it once.
func runFile(path string, opts interpreter.Options) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	c := console.New(os.Stdin, os.Stdout)
	defer c.Close()
	sh := shell.New(c.Writer(), c, programLibrary(), opts)

	// Ctrl-C stops the program with Escape rather than killing the process.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for range sigs {
			sh.Interrupt()
		}
	}()

	logger.InterpreterInfo("Running %s", path)
	if err := sh.RunSource(ctx, string(src)); err != nil {
		return 1
	}
	return 0
}

func runConsole(opts interpreter.Options) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	c := console.New(os.Stdin, os.Stdout)
	defer c.Close()
	c.LoadHistory(historyPath())
	sh := shell.New(c.Writer(), c, programLibrary(), opts)
	if c.Interactive() {
		c.Banner(banner)
	}
	if err := c.Run(ctx, sh); err != nil && ctx.Err() == nil {
		logger.Error(logger.AreaSession, "Console stopped: %v", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func historyPath() string {
	if path := configuration.GetString("Console", "history_file", ""); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".bbcbasic_history")
}

func runServer(opts interpreter.Options) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := configuration.GetString("Store", "database_path", "programs.db")
	st, err := store.Open(dbPath)
	if err != nil {
		logger.Error(logger.AreaStore, "Database initialization failed: %v", err)
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", dbPath, err)
		return 1
	}
	defer st.Close()
	logger.StoreInfo("Program store opened at %s", dbPath)

	tm, err := tlsmanager.NewTLSManager(tlsmanager.ConfigFromSettings())
	if err != nil {
		logger.ServerError("%v", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	srv := terminal.NewServer(st, opts)
	addr := configuration.GetString("Server", "listen_address", ":8080")
	fmt.Printf("Serving BBC BASIC terminals on %s\n", addr)
	if err := srv.ListenAndServe(ctx, addr, tm); err != nil {
		logger.ServerError("Server stopped: %v", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger.ServerInfo("Server shut down")
	return 0
}
