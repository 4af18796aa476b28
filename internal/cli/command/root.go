package command

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/textnonce-go/internal/cli/config"
	"github.com/yndnr/textnonce-go/internal/cli/connection"
	"github.com/yndnr/textnonce-go/internal/cli/output"
	"github.com/yndnr/textnonce-go/internal/infra/buildinfo"
)

const profileKey = "profile"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "textnonce-cli",
		Usage:   "Generate and fetch sortable text nonces",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GenerateCommand(),
			FetchCommand(),
			SystemCommand(),
			ConfigCommand(),
		},
		Before: loadProfile,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "CLI profile path (default ~/.textnonce/cli.yaml)",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "server base URL, e.g. http://127.0.0.1:5080",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Aliases: []string{"K"},
			Usage:   "API key sent as a bearer token",
		},
		&cli.StringFlag{
			Name:  "ca-cert",
			Usage: "extra CA bundle for https servers",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "skip TLS certificate verification",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "request timeout",
		},
	}
}

func loadProfile(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[profileKey] = cfg
	return nil
}

// GlobalFlags are the effective global settings: explicit flags override the
// profile.
type GlobalFlags struct {
	Server   string
	APIKey   string
	CACert   string
	Insecure bool
	Output   output.Format
	Timeout  time.Duration
}

// ParseGlobalFlags merges flags over the loaded profile.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	profile := Profile(c)

	g := &GlobalFlags{
		Server:   pickString(c, "server", profile.Server),
		APIKey:   pickString(c, "api-key", profile.APIKey),
		CACert:   pickString(c, "ca-cert", profile.CACert),
		Insecure: profile.Insecure,
		Timeout:  profile.Timeout,
	}
	if c.IsSet("insecure") {
		g.Insecure = c.Bool("insecure")
	}
	if c.IsSet("timeout") {
		g.Timeout = c.Duration("timeout")
	}
	if g.Timeout <= 0 {
		g.Timeout = config.Default().Timeout
	}

	format, err := output.ParseFormat(pickString(c, "output", profile.Output))
	if err != nil {
		return nil, err
	}
	g.Output = format
	return g, nil
}

func pickString(c *cli.Context, flag, fallback string) string {
	if c.IsSet(flag) {
		return c.String(flag)
	}
	return fallback
}

// Profile returns the profile loaded by the app's Before hook, or the
// defaults when the hook did not run.
func Profile(c *cli.Context) *config.CLIConfig {
	if c.App != nil {
		if cfg, ok := c.App.Metadata[profileKey].(*config.CLIConfig); ok {
			return cfg
		}
	}
	return config.Default()
}

// NewClient builds the server client from the global settings.
func NewClient(g *GlobalFlags) (*connection.HTTPClient, error) {
	return connection.NewHTTPClient(connection.Options{
		Server:   g.Server,
		APIKey:   g.APIKey,
		CACert:   g.CACert,
		Insecure: g.Insecure,
		Timeout:  g.Timeout,
	})
}

// render writes data in the selected format to the app writer.
func render(c *cli.Context, format output.Format, data any) error {
	return output.NewFormatter(format).Format(writer(c), data)
}

func writer(c *cli.Context) io.Writer {
	if c.App != nil && c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
