package command

import (
	"context"

	"github.com/urfave/cli/v2"
)

// FetchCommand returns the fetch command.
func FetchCommand() *cli.Command {
	return &cli.Command{
		Name:   "fetch",
		Usage:  "Fetch nonces from a running server",
		Flags:  nonceFlags(),
		Action: fetch,
	}
}

func fetch(c *cli.Context) error {
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

	// Unset flags defer to the server's configured defaults.
	var length, count *int
	if c.IsSet("length") {
		v := c.Int("length")
		length = &v
	}
	if c.IsSet("count") {
		v := c.Int("count")
		count = &v
	}

	batch, err := client.IssueNonces(ctx, length, count)
	if err != nil {
		return err
	}
	return render(c, g.Output, batch)
}
