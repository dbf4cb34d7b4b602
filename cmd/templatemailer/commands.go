package main

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/templatemailer"
	"github.com/dmitrymomot/templatemailer/pkg/mailer"
	"github.com/dmitrymomot/templatemailer/pkg/mailer/stdout"
)

var errNotDelivered = errors.New("email was not delivered to every recipient")

func newRenderCommand(rt *runtime) *cobra.Command {
	var (
		pkg        string
		format     string
		vars       []string
		noEmogrify bool
		noDefaults bool
	)

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render one variant of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service(stdout.NewWithWriter(io.Discard))
			if err != nil {
				return err
			}

			name := args[0]
			if pkg == "" {
				if pkg, err = svc.LocateTemplate(cmd.Context(), name); err != nil {
					return err
				}
			}

			variables, err := parseVars(vars)
			if err != nil {
				return err
			}
			if !noDefaults {
				variables = svc.TemplateVariables(variables)
			}

			var opts []templatemailer.RenderOption
			if noEmogrify {
				opts = append(opts, templatemailer.WithoutEmogrify())
			}

			body, err := svc.RenderEmailBody(cmd.Context(), name, pkg, format, variables, opts...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), body)
			return err
		},
	}

	cmd.Flags().StringVarP(&pkg, "package", "p", "", "template package (default: first package providing the template)")
	cmd.Flags().StringVarP(&format, "format", "f", "html", "template format, e.g. html or txt")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "template variable as key=value")
	cmd.Flags().BoolVar(&noEmogrify, "no-emogrify", false, "keep <style> blocks in html output")
	cmd.Flags().BoolVar(&noDefaults, "no-defaults", false, "do not merge default template variables")
	return cmd
}

func newLocateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "locate <template>",
		Short: "Print the template package providing a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service(stdout.NewWithWriter(io.Discard))
			if err != nil {
				return err
			}
			pkg, err := svc.LocateTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), pkg)
			return err
		},
	}
}

func newSendCommand(rt *runtime) *cobra.Command {
	var (
		subject     string
		to          []string
		cc          []string
		bcc         []string
		vars        []string
		attachments []string
		sender      string
		fromAddress string
		fromName    string
	)

	cmd := &cobra.Command{
		Use:   "send <template>",
		Short: "Render a template and send it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			transport, err := rt.transport(ctx)
			if err != nil {
				return err
			}
			svc, err := rt.service(transport)
			if err != nil {
				return err
			}

			variables, err := parseVars(vars)
			if err != nil {
				return err
			}

			opts := []templatemailer.SendOption{
				templatemailer.WithCC(cc...),
				templatemailer.WithBCC(bcc...),
			}
			switch {
			case fromAddress != "":
				opts = append(opts, templatemailer.FromAddress(fromAddress, fromName))
			case sender != "":
				opts = append(opts, templatemailer.FromSender(sender))
			}

			files, err := readAttachments(attachments)
			if err != nil {
				return err
			}
			opts = append(opts, templatemailer.WithAttachments(files...))

			ok, err := svc.SendTemplateEmail(ctx, args[0], subject, to, variables, opts...)
			if err != nil {
				return err
			}
			if !ok {
				return errNotDelivered
			}
			rt.logger.InfoContext(ctx, "email sent", "template", args[0], "recipients", len(to)+len(cc)+len(bcc))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "email subject")
	cmd.Flags().StringArrayVar(&to, "to", nil, "recipient address")
	cmd.Flags().StringArrayVar(&cc, "cc", nil, "carbon copy address")
	cmd.Flags().StringArrayVar(&bcc, "bcc", nil, "blind carbon copy address")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "template variable as key=value")
	cmd.Flags().StringArrayVar(&attachments, "attach", nil, "file to attach")
	cmd.Flags().StringVar(&sender, "from", "", "configured sender name (default: default)")
	cmd.Flags().StringVar(&fromAddress, "from-address", "", "explicit sender address")
	cmd.Flags().StringVar(&fromName, "from-name", "", "display name for --from-address")
	_ = cmd.MarkFlagRequired("subject")
	cmd.MarkFlagsMutuallyExclusive("from", "from-address")
	return cmd
}

// parseVars turns key=value pairs into template variables.
func parseVars(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q, want key=value", p)
		}
		vars[key] = value
	}
	return vars, nil
}

func readAttachments(paths []string) ([]mailer.Attachment, error) {
	out := make([]mailer.Attachment, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("attachment: %w", err)
		}

		contentType := mime.TypeByExtension(filepath.Ext(p))
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}

		out = append(out, mailer.Attachment{
			Filename:    filepath.Base(p),
			ContentType: contentType,
			Content:     data,
		})
	}
	return out, nil
}
