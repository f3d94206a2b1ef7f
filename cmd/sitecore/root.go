package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-sitecore"
	"github.com/goliatone/go-sitecore/internal/prompt"
	"github.com/goliatone/go-sitecore/pkg/fetchcache"
	"github.com/goliatone/go-sitecore/pkg/manifest"
	"github.com/goliatone/go-sitecore/pkg/transport"
)

type app struct {
	out    io.Writer
	driver prompt.Driver
	logger *slog.Logger

	manifestPath string
	example      bool
	locale       string
	logLevel     string
	dataRoot     string
}

func newRootCommand(out io.Writer, driver prompt.Driver) *cobra.Command {
	a := &app{out: out, driver: driver}

	root := &cobra.Command{
		Use:           "sitecore",
		Short:         "Inspect routing and data resolution for a site manifest",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), a.logLevel)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.manifestPath, "manifest", "m", "site.yaml", "site manifest (JSON or YAML)")
	flags.BoolVar(&a.example, "example", false, "use the bundled example site instead of --manifest")
	flags.StringVarP(&a.locale, "locale", "l", "", "locale for generated hrefs (defaults to the site default)")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.StringVar(&a.dataRoot, "data-root", "", "directory serving local data addresses (defaults to the manifest directory)")

	root.AddCommand(
		a.routesCommand(),
		a.treeCommand(),
		a.pageCommand(),
		a.resolveCommand(),
		a.hrefCommand(),
		a.versionCommand(),
		a.localeCommand(),
		a.watchCommand(),
		a.openapiCommand(),
	)
	return root
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func (a *app) loadManifest() (*manifest.Manifest, error) {
	if a.example {
		return manifest.LoadFS(sitecore.ExampleSiteFS(), sitecore.ExampleManifestName)
	}
	return manifest.Load(a.manifestPath)
}

func (a *app) session(options ...sitecore.Option) (*sitecore.Session, error) {
	m, err := a.loadManifest()
	if err != nil {
		return nil, err
	}
	return a.sessionFor(m, options...)
}

func (a *app) sessionFor(m *manifest.Manifest, options ...sitecore.Option) (*sitecore.Session, error) {
	opts := []sitecore.Option{
		sitecore.WithLogger(a.logger),
		sitecore.WithTransport(a.transport()),
	}
	return sitecore.New(m, append(opts, options...)...)
}

func (a *app) transport() fetchcache.Transport {
	opts := []transport.Option{transport.WithLogger(a.logger)}
	switch {
	case a.example:
		opts = append(opts, transport.WithFS(sitecore.ExampleSiteFS()), transport.WithoutHTTP())
	case a.dataRoot != "":
		opts = append(opts, transport.WithRoot(a.dataRoot))
	default:
		opts = append(opts, transport.WithRoot(filepath.Dir(a.manifestPath)))
	}
	return sitecore.NewTransport(opts...)
}

func (a *app) localeFor(s *sitecore.Session) string {
	if a.locale != "" {
		return a.locale
	}
	return s.Planner().DefaultLocale()
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
