package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/autoinsurance/storefront/internal/common/config"
	"github.com/autoinsurance/storefront/internal/common/configtypes"
	"github.com/autoinsurance/storefront/internal/common/logger"
)

func main() {
	ctx := context.Background()

	m := NewMain()
	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct{}

func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("sectionctl"),
		kong.Description("Inspect how CMS pages are filtered before rendering."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'sectionctl --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}
	deps.Config = cfg

	deps.Logger = zap.NewNop()
	if cli.Verbose {
		dl, err := logger.NewLogger(configtypes.LogConfig{
			Level:   configtypes.LogLevelDebug,
			Console: configtypes.ConsoleLogConfig{Enabled: true, Format: configtypes.LogFormatText},
		}, logger.WithConsoleWriter(zapcore.AddSync(stderr)))
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer dl.Sync()
		deps.Logger = dl.Logger
	}

	return kongCtx.Run(deps)
}

// loadConfig reads the config file when one is given; otherwise defaults
// plus environment overrides apply.
func loadConfig(path string) (*configtypes.SiteConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", path, err)
	}
	if err := config.Validate(cfg).Err(path); err != nil {
		return nil, err
	}
	return cfg, nil
}
