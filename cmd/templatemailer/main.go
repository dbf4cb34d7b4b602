// Command templatemailer renders, locates and sends templated emails and
// serves template previews.
//
//	templatemailer render Welcome --var name=Alice
//	templatemailer locate Welcome
//	templatemailer send Welcome --subject "Welcome" --to alice@example.com --var name=Alice
//	templatemailer serve --addr :8080
//
// Settings are read from YAML files (--settings, repeatable) after .env files
// (--env-file) are loaded, so settings can reference %env:NAME% values.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/templatemailer"
)

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	rt := &runtime{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "templatemailer",
		Short:         "Render and send templated emails",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.setup(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return rt.close()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringArrayVarP(&rt.flags.settingsFiles, "settings", "s", []string{"settings.yaml"}, "settings file, later files override earlier ones")
	flags.StringArrayVar(&rt.flags.envFiles, "env-file", []string{".env"}, ".env file loaded before settings")
	flags.StringVar(&rt.flags.root, "root", templatemailer.DefaultRootPath, "settings path holding the mailer configuration")
	flags.StringVar(&rt.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&rt.flags.logFormat, "log-format", "", "log format: json, text")
	flags.StringVar(&rt.flags.transport, "transport", "", "transport override: smtp, ses, sendgrid, resend, stdout")
	flags.StringVar(&rt.flags.packagesDir, "packages", "", "directory holding template packages (overrides resources settings)")

	root.AddCommand(
		newRenderCommand(rt),
		newLocateCommand(rt),
		newSendCommand(rt),
		newServeCommand(rt),
	)
	return root
}
