package cmd

import (
	"fmt"

	"github.com/alecthomas/kong"
)

func helpOptions() kong.HelpOptions {
	return kong.HelpOptions{
		Compact:             true,
		NoExpandSubcommands: true,
	}
}

const helpExamples = `
Examples:
  narrowlink decode 'https://chat.example.com/#narrow/stream/42-design/topic/logo/near/1234'
  narrowlink link topic design "logo ideas" --copy
  narrowlink link dm 8 12 --feature-level 185
  narrowlink link message 1234 --open
  narrowlink channels --filter team

Credentials for server lookups come from --email (or config "email") and the
` + apiKeyEnv + ` environment variable.
`

// helpPrinter prints kong's help and, on the top-level page, a few examples.
func helpPrinter(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}

	if ctx.Selected() == nil {
		_, _ = fmt.Fprint(ctx.Stdout, helpExamples)
	}

	return nil
}
