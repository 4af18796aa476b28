package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/textnonce-go/internal/cli/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the CLI profile",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective profile",
				Action: configShow,
			},
			{
				Name:   "path",
				Usage:  "Print the profile path",
				Action: configPath,
			},
			{
				Name:      "set",
				Usage:     "Set a profile value",
				ArgsUsage: "KEY VALUE",
				Action:    configSet,
			},
		},
	}
}

func profilePath(c *cli.Context) string {
	if p := c.String("config"); p != "" {
		return p
	}
	return config.DefaultConfigPath()
}

func configShow(c *cli.Context) error {
	g, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	return render(c, g.Output, Profile(c).Masked())
}

func configPath(c *cli.Context) error {
	_, err := fmt.Fprintln(writer(c), profilePath(c))
	return err
}

func configSet(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: config set KEY VALUE (keys: %v)", config.Keys())
	}

	path := profilePath(c)
	// Environment overrides must not leak into the saved file, so re-read
	// the file alone.
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if err := cfg.Set(c.Args().Get(0), c.Args().Get(1)); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	_, err = fmt.Fprintf(writer(c), "%s updated\n", path)
	return err
}
