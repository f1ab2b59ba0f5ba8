// Package main provides the patterns binary: the documentation server and
// the offline sidebar and site build commands.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mkbrechtel/patterns/internal/app"
	"github.com/mkbrechtel/patterns/internal/config"
	"github.com/mkbrechtel/patterns/internal/logger"
	"github.com/mkbrechtel/patterns/internal/sidebar"
	"github.com/mkbrechtel/patterns/internal/site"
	"github.com/mkbrechtel/patterns/internal/version"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ patterns: %v\n", err)
		os.Exit(1)
	}
}

// contentFlags override the environment configuration for one invocation.
type contentFlags struct {
	content string
	site    string
	drafts  bool
}

func (f *contentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.content, "content", "", "Content root directory (default: PATTERNS_CONTENT_ROOT or embedded docs)")
	cmd.Flags().StringVar(&f.site, "site", "", "Site file (default: PATTERNS_SITE_FILE or site.yaml)")
	cmd.Flags().BoolVar(&f.drafts, "drafts", false, "Include draft pages")
}

func (f *contentFlags) apply(cfg *config.Config) {
	if f.content != "" {
		cfg.ContentRoot = f.content
	}
	if f.site != "" {
		cfg.SiteFile = f.site
	}
	if f.drafts {
		cfg.IncludeDrafts = true
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "patterns",
		Short:         "Cute Patterns documentation server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(serveCmd(), sidebarCmd(), buildCmd(), versionCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	var (
		flags  contentFlags
		listen string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the documentation site",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			flags.apply(cfg)
			if listen != "" {
				cfg.ListenPort = listen
			}
			if watch {
				cfg.Watch = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
			defer func() { _ = loggerClient.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, loggerClient)
			if err != nil {
				return err
			}
			return a.Run()
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default: PATTERNS_LISTEN_PORT or :4780)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Rebuild when the content root changes")
	return cmd
}

func sidebarCmd() *cobra.Command {
	var (
		flags      contentFlags
		format     string
		categories bool
	)

	cmd := &cobra.Command{
		Use:   "sidebar",
		Short: "Print the generated sidebar",
		Long: `Print the sidebar the server would render.

With --categories only the categories scanned from the content base are
printed, without the entries declared in the site file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			flags.apply(cfg)

			var (
				out any
				err error
			)
			if categories {
				out, err = scanCategories(cfg)
			} else {
				out, err = app.NewSiteBuilder(cfg, logger.Nop()).Sidebar()
			}
			if err != nil {
				return err
			}
			return writeSidebar(cmd.OutOrStdout(), out, format)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json, yaml)")
	cmd.Flags().BoolVar(&categories, "categories", false, "Print only the scanned categories")
	return cmd
}

func buildCmd() *cobra.Command {
	var (
		flags contentFlags
		out   string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the site into a static directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			flags.apply(cfg)

			loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
			defer func() { _ = loggerClient.Sync() }()

			snap, err := app.NewSiteBuilder(cfg, loggerClient).Build(cmd.Context())
			if err != nil {
				return err
			}
			n, err := site.Export(snap, out)
			if err != nil {
				return err
			}
			loggerClient.Info("✅ site exported",
				logger.String("dir", out),
				logger.Int("pages", n),
				logger.Int("sidebar_entries", len(snap.Entries)),
				logger.Duration("duration", snap.Duration))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "dist", "Output directory")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func scanCategories(cfg *config.Config) ([]sidebar.Category, error) {
	siteCfg, err := site.NewLoader(cfg.SiteFile, cfg.SiteFileOptional()).Load()
	if err != nil {
		return nil, err
	}
	return sidebar.Build(app.ContentFS(cfg), siteCfg.Content.Base)
}

func writeSidebar(w io.Writer, v any, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}
