package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dop251/goja"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsrt/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/jsrt/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/jsrt/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/jsrt/internal/infrastructure/server"
	"github.com/GriffinCanCode/AgentOS/jsrt/internal/jsrt"
)

func main() {
	// Parse flags
	scriptA := flag.String("a", "", "Script run in the first context; it publishes through the global exports object")
	scriptB := flag.String("b", "", "Script run in the second context; A's exports are visible as peer")
	debugAddr := flag.String("debug-addr", "", "Serve debug endpoints on this address until interrupted")
	flag.Parse()

	if *scriptA == "" {
		fmt.Fprintln(os.Stderr, "usage: jsrt -a a.js [-b b.js] [-debug-addr host:port]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *scriptA, *scriptB, *debugAddr); err != nil {
		fmt.Fprintf(os.Stderr, "jsrt: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, scriptA, scriptB, debugAddr string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if debugAddr != "" {
		cfg.Debug.Enabled = true
		cfg.Debug.Address = debugAddr
	}

	logger, err := logging.New(loggerConfig(cfg.Logging))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	iso := jsrt.NewIsolate(
		jsrt.WithLogger(logger),
		jsrt.WithMetrics(metrics),
		jsrt.WithMaxCallStackSize(cfg.Engine.MaxCallStackSize),
	)
	defer iso.Dispose()

	opts := jsrt.ContextOptions{
		ExposeGC:      cfg.Engine.ExposeGC,
		ExposeConsole: cfg.Engine.ExposeConsole,
	}
	a, err := iso.NewContext(opts)
	if err != nil {
		return err
	}
	b, err := iso.NewContext(opts)
	if err != nil {
		return err
	}

	exports := a.Runtime().NewObject()
	if err := a.GlobalObject().Set("exports", exports); err != nil {
		return err
	}
	if _, err := runFile(ctx, cfg, a, scriptA); err != nil {
		return err
	}

	if scriptB != "" {
		peer, err := jsrt.MarshalToContext(exports, b)
		if err != nil {
			return fmt.Errorf("marshal exports: %w", err)
		}
		if err := b.GlobalObject().Set("peer", peer); err != nil {
			return err
		}

		result, err := runFile(ctx, cfg, b, scriptB)
		if err != nil {
			return err
		}
		out, err := describe(b, result)
		if err != nil {
			return err
		}
		fmt.Println(out)
	}

	if !cfg.Debug.Enabled {
		return nil
	}

	// Scripts are done; the isolate is only read from here on
	srv := server.New(server.Config{
		Address:     cfg.Debug.Address,
		Development: cfg.Logging.Development,
	}, iso, reg, metrics, logger)
	logger.Info("Debug endpoints enabled", zap.String("addr", cfg.Debug.Address))
	return srv.Run(ctx)
}

// loggerConfig picks the development or production preset and applies the
// configured level.
func loggerConfig(cfg config.LogConfig) logging.Config {
	lc := logging.DefaultConfig()
	if cfg.Development {
		lc = logging.DevelopmentConfig()
	}
	if cfg.Level != "" {
		lc.Level = cfg.Level
	}
	return lc
}

func runFile(ctx context.Context, cfg *config.Config, c *jsrt.Context, path string) (goja.Value, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	if cfg.Engine.ScriptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Engine.ScriptTimeout)
		defer cancel()
	}
	return c.RunScript(ctx, path, string(src))
}

// describe stringifies v inside c, where a proxied value's toString may throw
func describe(c *jsrt.Context, v goja.Value) (string, error) {
	if v == nil {
		return "undefined", nil
	}
	scope := c.Enter()
	defer scope.Exit()

	var out string
	if ex := c.Runtime().Try(func() { out = v.String() }); ex != nil {
		return "", ex
	}
	return out, nil
}
