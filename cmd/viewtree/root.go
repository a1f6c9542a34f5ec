package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-viewtree/internal/config"
	"github.com/goliatone/go-viewtree/internal/logging"
	"github.com/goliatone/go-viewtree/pkg/render"
	"github.com/goliatone/go-viewtree/pkg/renderers/file"
	"github.com/goliatone/go-viewtree/pkg/renderers/html"
	"github.com/goliatone/go-viewtree/pkg/renderers/structured"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	v       *viper.Viper
	cfgFile string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	cmd := &cobra.Command{
		Use:           "viewtree",
		Short:         "Render and serve trees of nested views",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (YAML); VIEWTREE_* env vars override it")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("templates", "", "template directory")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = a.v.BindPFlag("templates.dir", flags.Lookup("templates"))

	cmd.AddCommand(newRenderCmd(a), newServeCmd(a))
	return cmd
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// registry wires the HTML, structured and file renderers from configuration.
func (a *app) registry() (*render.Registry, *html.Renderer, error) {
	htmlRenderer, err := html.New(
		html.WithTemplatesDir(a.cfg.Templates.Dir),
		html.WithExtension(a.cfg.Templates.Extension),
		html.WithCacheSize(a.cfg.Templates.CacheSize),
		html.WithLogger(logging.Component(a.logger, "templates")),
	)
	if err != nil {
		return nil, nil, err
	}

	registry := render.NewRegistry()
	if err := htmlRenderer.Register(registry); err != nil {
		return nil, nil, err
	}
	if err := structured.Register(registry); err != nil {
		return nil, nil, err
	}

	fileRenderer := file.New(
		file.WithDir(a.cfg.Files.Dir),
		file.WithContentType(a.cfg.Files.ContentType),
		file.WithLogger(logging.Component(a.logger, "files")),
	)
	if registry.Has(fileRenderer.ContentType()) {
		return nil, nil, fmt.Errorf("files.content_type %q is already served by another renderer", fileRenderer.ContentType())
	}
	if err := fileRenderer.Register(registry); err != nil {
		return nil, nil, err
	}
	a.logger.Debug("renderers registered", "content_types", registry.List())
	return registry, htmlRenderer, nil
}

func (a *app) statusTemplates() (map[int]string, error) {
	codes := html.StatusTemplates()
	configured, err := a.cfg.View.StatusCodes()
	if err != nil {
		return nil, fmt.Errorf("status templates: %w", err)
	}
	for code, template := range configured {
		codes[code] = template
	}
	return codes, nil
}
