package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/textnonce-go/internal/cli/connection"
	"github.com/yndnr/textnonce-go/pkg/nonce"
)

// maxLocalCount bounds one generate call.
const maxLocalCount = 100_000

func nonceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "length",
			Aliases: []string{"l"},
			Usage:   "nonce length in characters, a multiple of 4 and at least 16",
			Value:   nonce.DefaultLength,
		},
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Usage:   "number of nonces",
			Value:   1,
		},
	}
}

// GenerateCommand returns the generate command.
func GenerateCommand() *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate nonces locally",
		Flags:   nonceFlags(),
		Action:  generate,
	}
}

func generate(c *cli.Context) error {
	g, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	length, count := c.Int("length"), c.Int("count")
	if err := nonce.ValidateLength(length); err != nil {
		return fmt.Errorf("--length %d: %w", length, err)
	}
	if count < 1 || count > maxLocalCount {
		return fmt.Errorf("--count must be between 1 and %d", maxLocalCount)
	}

	tokens, err := nonce.Default().GenerateN(count, length)
	if err != nil {
		return err
	}

	batch := &connection.NonceBatch{
		Length:   length,
		Count:    len(tokens),
		Nonces:   make([]string, len(tokens)),
		IssuedAt: time.Now().UTC(),
	}
	for i, t := range tokens {
		batch.Nonces[i] = t.String()
	}
	return render(c, g.Output, batch)
}
