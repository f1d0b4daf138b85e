package main

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/autoinsurance/storefront/internal/common/configtypes"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Config *configtypes.SiteConfig
	Logger *zap.Logger
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"c" type:"path" help:"Storefront config file (defaults and environment apply when omitted)"`
	Verbose bool   `short:"v" help:"Log content API requests to stderr"`

	Page   PageCmd   `cmd:"" help:"Fetch a page and print the sections that would be rendered"`
	Policy PolicyCmd `cmd:"" help:"Print the effective filtering policy"`
}

// PageCmd is the "page" subcommand.
type PageCmd struct {
	Slug    string        `arg:"" help:"Page slug; use 'homepage' for the home page"`
	API     string        `name:"api" help:"Content API base URL (overrides config)"`
	Timeout time.Duration `default:"2s" help:"Per-request timeout"`
	Stages  bool          `help:"Include per-stage section counts"`
}

// PolicyCmd is the "policy" subcommand.
type PolicyCmd struct{}
