package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/textnonce-go/internal/cli/output"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server health and status",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check server liveness",
				Action: systemHealth,
			},
			{
				Name:   "status",
				Usage:  "Show issue counters and limits",
				Action: systemStatus,
			},
		},
	}
}

func systemHealth(c *cli.Context) error {
	g, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	client, err := NewClient(g)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, g.Timeout)
	defer cancel()

	h, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check %s: %w", client.BaseURL(), err)
	}

	if g.Output != output.FormatTable {
		return render(c, g.Output, h)
	}
	if h.Status != "healthy" {
		return fmt.Errorf("server %s is %s", client.BaseURL(), h.Status)
	}
	_, err = fmt.Fprintf(writer(c), "server %s is healthy\n", client.BaseURL())
	return err
}

func systemStatus(c *cli.Context) error {
	g, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	client, err := NewClient(g)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, g.Timeout)
	defer cancel()

	st, err := client.Status(ctx)
	if err != nil {
		return err
	}
	return render(c, g.Output, st)
}
