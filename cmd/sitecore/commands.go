package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"slices"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-sitecore"
	"github.com/goliatone/go-sitecore/internal/prompt"
	"github.com/goliatone/go-sitecore/pkg/manifest"
	pkgopenapi "github.com/goliatone/go-sitecore/pkg/openapi"
	"github.com/goliatone/go-sitecore/pkg/pagetree"
)

func (a *app) routesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List every declared route with its href",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			locale := a.localeFor(s)
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROUTE\tID\tKIND\tHREF")
			s.Tree().Walk(func(page *pagetree.Page, depth int) bool {
				href := "-"
				if !page.IsTemplate() {
					href = s.Planner().Href(page.NavRoute(), locale)
				}
				fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\n",
					strings.Repeat("  ", depth), displayRoute(page.Route),
					page.Identifier(), pageKind(page), href)
				return true
			})
			return w.Flush()
		},
	}
}

func pageKind(page *pagetree.Page) string {
	switch {
	case page.IsTemplate():
		return "template"
	case page.Index:
		return "index"
	case page.Version != nil:
		return "version:" + page.Version.ID
	default:
		return "page"
	}
}

func displayRoute(route string) string {
	return "/" + route
}

func (a *app) treeCommand() *cobra.Command {
	var (
		opts   pagetree.HierarchyOptions
		extras []string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the navigation hierarchy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			opts.Locale = a.localeFor(s)
			opts.Extras, err = parseExtras(extras)
			if err != nil {
				return err
			}
			items, err := s.Navigation(opts)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a, items)
			}
			printNav(a, items, 0)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.NavType, "nav-type", "", "hide pages listing this nav type in hiddenIn")
	flags.BoolVar(&opts.Nested, "nested", true, "nest children under their parents")
	flags.BoolVar(&opts.IncludeHidden, "include-hidden", false, "keep globally hidden pages")
	flags.StringSliceVar(&opts.Include, "include", nil, "only routes matching these glob patterns")
	flags.StringSliceVar(&opts.Exclude, "exclude", nil, "drop routes matching these glob patterns")
	flags.StringSliceVar(&extras, "extra", nil, "key=value pairs exposed to visibility rules as extras")
	flags.BoolVar(&asJSON, "json", false, "print JSON instead of an outline")
	return cmd
}

func parseExtras(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --extra %q, want key=value", pair)
		}
		out[strings.TrimSpace(key)] = value
	}
	return out, nil
}

func printNav(a *app, items []pagetree.NavItem, depth int) {
	for _, item := range items {
		marker := ""
		if item.Version != nil {
			marker = " [" + item.Version.ID + "]"
		}
		a.printf("%s%s  %s%s\n", strings.Repeat("  ", depth), item.Label, item.Href, marker)
		printNav(a, item.Children, depth+1)
	}
}

func (a *app) pageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "page [path]",
		Short: "Load a path and summarise the data resolved for each block",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			path, err := a.pathArg(cmd.Context(), s, args)
			if err != nil {
				return err
			}
			view, err := s.Load(cmd.Context(), path)
			if err != nil {
				return err
			}
			a.printf("route:  /%s\n", view.Route)
			a.printf("locale: %s\n", view.Locale)
			a.printf("title:  %s\n", view.Page.Title)
			if len(view.Params) > 0 {
				keys := make([]string, 0, len(view.Params))
				for k := range view.Params {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					a.printf("param:  %s=%s\n", k, view.Params[k])
				}
			}
			printBlocks(a, view.Blocks, 0)
			return nil
		},
	}
}

func printBlocks(a *app, blocks []sitecore.BlockView, depth int) {
	for _, block := range blocks {
		keys := make([]string, 0, len(block.Data))
		for k := range block.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		name := block.Block.Type
		if block.Block.ID != "" {
			name += "#" + block.Block.ID
		}
		a.printf("%s- %s requires=%s data=[%s]\n",
			strings.Repeat("  ", depth), name, block.Block.Requires, strings.Join(keys, ","))
		printBlocks(a, block.Blocks, depth+1)
	}
}

type blockOutput struct {
	Type   string         `json:"type,omitempty"`
	ID     string         `json:"id,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
	Blocks []blockOutput  `json:"blocks,omitempty"`
}

type viewOutput struct {
	Session string            `json:"session"`
	Route   string            `json:"route"`
	Locale  string            `json:"locale"`
	Title   string            `json:"title,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Blocks  []blockOutput     `json:"blocks,omitempty"`
}

func blockOutputs(blocks []sitecore.BlockView) []blockOutput {
	if len(blocks) == 0 {
		return nil
	}
	out := make([]blockOutput, len(blocks))
	for i, block := range blocks {
		out[i] = blockOutput{
			Type:   block.Block.Type,
			ID:     block.Block.ID,
			Data:   block.Data,
			Blocks: blockOutputs(block.Blocks),
		}
	}
	return out
}

func (a *app) resolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [path]",
		Short: "Load a path and print the resolved block data as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			path, err := a.pathArg(cmd.Context(), s, args)
			if err != nil {
				return err
			}
			view, err := s.Load(cmd.Context(), path)
			if err != nil {
				return err
			}
			return writeJSON(a, viewOutput{
				Session: view.SessionID,
				Route:   view.Route,
				Locale:  view.Locale,
				Title:   view.Page.Title,
				Params:  view.Params,
				Blocks:  blockOutputs(view.Blocks),
			})
		},
	}
}

func (a *app) pathArg(ctx context.Context, s *sitecore.Session, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	path, err := a.driver.Input(ctx, prompt.InputConfig{
		Message: "Path",
		Default: "/",
		Help:    "A display path such as /blog/hello-world or /" + s.Planner().DefaultLocale(),
		Validator: func(value string) error {
			if _, ok := s.Page(value); !ok {
				return fmt.Errorf("no page matches %q", value)
			}
			return nil
		},
	})
	return path, err
}

func (a *app) hrefCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "href <ref>",
		Short: `Resolve an internal reference such as "page:about-us#team"`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			a.printf("%s\n", s.Href(args[0], a.localeFor(s)))
			return nil
		},
	}
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version <route> [target]",
		Short: "Switch a versioned route to another version",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			route := pagetree.NormalizeRoute(args[0])
			scope, ok := s.Planner().ScopeFor(route)
			if !ok {
				return fmt.Errorf("route %q is not inside a version scope", route)
			}
			current, _ := s.Planner().VersionOf(route)

			var target string
			if len(args) == 2 {
				target = args[1]
			} else {
				options := make([]string, len(scope.Versions))
				for i, v := range scope.Versions {
					options[i] = v.ID
				}
				idx, err := a.driver.Select(cmd.Context(), prompt.SelectConfig{
					Message:      "Version",
					Options:      options,
					DefaultIndex: max(slices.Index(options, current), 0),
				})
				if err != nil {
					return err
				}
				target = options[idx]
			}

			switched, err := s.Planner().SwitchVersion(route, target)
			if err != nil {
				return err
			}
			a.printf("%s -> %s\n", current, target)
			a.printf("%s\n", s.Planner().Href(switched, a.localeFor(s)))
			return nil
		},
	}
}

func (a *app) localeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "locale <path> <target>",
		Short: "Print the href of a path in another locale",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			m := s.Manifest()
			if !slices.Contains(m.Locales, args[1]) && args[1] != m.DefaultLocale {
				return fmt.Errorf("unknown locale %q", args[1])
			}
			a.printf("%s\n", s.Planner().SwitchLocale(args[0], args[1]))
			return nil
		},
	}
}

func (a *app) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the session whenever the manifest changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.example {
				return errors.New("watch needs --manifest; the bundled example is read-only")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			initial, err := a.session()
			if err != nil {
				return err
			}
			cache := initial.Cache()
			a.printf("watching %s (%d pages)\n", a.manifestPath, initial.Tree().Len())

			err = manifest.Watch(ctx, a.manifestPath, func(m *manifest.Manifest, err error) {
				if err != nil {
					a.logger.Error("manifest reload failed", slog.Any("error", err))
					return
				}
				s, err := a.sessionFor(m, sitecore.WithCache(cache))
				if err != nil {
					a.logger.Error("session rebuild failed", slog.Any("error", err))
					return
				}
				a.printf("reloaded %s (%d pages, %d cached)\n", a.manifestPath, s.Tree().Len(), cache.Len())
			}, manifest.WithWatchLogger(a.logger))
			return err
		},
	}
}

func (a *app) openapiCommand() *cobra.Command {
	var (
		baseURL   string
		noServers bool
		validate  bool
	)
	cmd := &cobra.Command{
		Use:   "openapi <source>",
		Short: "Derive data source declarations from an OpenAPI document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := pkgopenapi.ParseSource(args[0])
			if err != nil {
				return err
			}
			opts := []pkgopenapi.ExtractOption{pkgopenapi.WithValidation(validate)}
			if baseURL != "" {
				opts = append(opts, pkgopenapi.WithBaseURL(baseURL))
			}
			if noServers {
				opts = append(opts, pkgopenapi.WithoutServers())
			}
			decls, err := sitecore.DeclarationsFromOpenAPI(cmd.Context(), src, opts...)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(a.out)
			enc.SetIndent(2)
			if err := enc.Encode(map[string]any{"sources": decls}); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&baseURL, "base-url", "", "prefix for endpoint paths (overrides the document servers)")
	flags.BoolVar(&noServers, "no-servers", false, "ignore the document servers list")
	flags.BoolVar(&validate, "validate", true, "validate the document before extracting")
	return cmd
}

func writeJSON(a *app, v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
