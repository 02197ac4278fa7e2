package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <store-domain>",
		Short: "Start an X-Series OAuth login",
		Long: "Start an X-Series authorization for the given store. Open the printed\n" +
			"URL in a browser and approve access; the server stores the tokens when\n" +
			"Lightspeed redirects back to it.",
		Example: `  invctl login mystore`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			resp, err := newClient().Login(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			fmt.Printf("Open this URL to authorize %s:\n\n  %s\n", resp.StoreDomain, resp.AuthorizeURL)
			return nil
		},
	}
}
