package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/meddetect/internal/client"
	"github.com/example/meddetect/internal/session"
)

func contactCommand(rt *runtime) *cobra.Command {
	var fields session.ContactFields

	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message through the contact form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.cfg.Client.Validate(); err != nil {
				return err
			}

			c := client.New(rt.cfg.Client.BaseURL, rt.cfg.Client.APIKey, client.WithLogger(rt.logger))
			form := session.NewContactForm(c, rt.cfg.Client.ContactReset, rt.logger)
			defer form.Close()

			form.SetFields(fields)
			if err := form.Submit(cmd.Context()); err != nil {
				snap := form.Snapshot()
				if snap.Status == session.StatusError {
					return fmt.Errorf("error sending message: %s", snap.ErrorMessage)
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Message sent successfully! Thank you for reaching out. We'll get back to you soon.")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&fields.Name, "name", "", "full name (required)")
	flags.StringVar(&fields.Email, "email", "", "email address (required)")
	flags.StringVar(&fields.Phone, "phone", "", "phone number")
	flags.StringVar(&fields.Subject, "subject", "", "subject (required)")
	flags.StringVar(&fields.Message, "message", "", "message body (required)")

	return cmd
}
