package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

func credentialsCmd() *cobra.Command {
	credsRoot := &cobra.Command{
		Use:     "credentials",
		Aliases: []string{"creds"},
		Short:   "Manage Lightspeed credentials",
	}

	credsRoot.AddCommand(
		credentialsStatusCmd(),
		credentialsSetCmd(),
		credentialsClearCmd(),
		credentialsTestCmd(),
	)

	return credsRoot
}

func credentialsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show which credentials are configured",
		Example: `  invctl credentials status`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			st, err := c.CredentialStatus(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(st)
			}

			return printCredentialStatus(os.Stdout, st)
		},
	}
}

func credentialsSetCmd() *cobra.Command {
	var raw domain.RawCredentials

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store R-Series or X-Series credentials",
		Long: "Store credentials for one API generation. Pass --api-key, --api-secret\n" +
			"and --cluster for R-Series, or --store-domain and --access-token for\n" +
			"X-Series. Secrets can also come from INVCTL_API_SECRET and\n" +
			"INVCTL_ACCESS_TOKEN.",
		Example: `  # R-Series
  invctl credentials set --api-key KEY --api-secret SECRET --cluster us

  # X-Series with a personal token
  invctl credentials set --store-domain mystore --access-token TOKEN`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if raw.APISecret == "" {
				raw.APISecret = os.Getenv("INVCTL_API_SECRET")
			}
			if raw.AccessToken == "" {
				raw.AccessToken = os.Getenv("INVCTL_ACCESS_TOKEN")
			}
			if raw.APIKey == "" && raw.StoreDomain == "" {
				return errors.New("either --api-key or --store-domain is required")
			}

			c := newClient()
			st, err := c.SaveCredentials(context.Background(), raw)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(st)
			}

			fmt.Printf("Saved %s credentials.\n", st.Generation)
			return nil
		},
	}
	cmd.Flags().StringVar(&raw.APIKey, "api-key", "", "R-Series API key")
	cmd.Flags().StringVar(&raw.APISecret, "api-secret", "", "R-Series API secret")
	cmd.Flags().StringVar(&raw.Cluster, "cluster", "us", "R-Series cluster (us, eu)")
	cmd.Flags().StringVar(&raw.StoreDomain, "store-domain", "", "X-Series store domain prefix")
	cmd.Flags().StringVar(&raw.AccessToken, "access-token", "", "X-Series access token")
	cmd.Flags().StringVar(&raw.RefreshToken, "refresh-token", "", "X-Series refresh token")

	return cmd
}

func credentialsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "clear",
		Short:   "Remove the stored credentials",
		Example: `  invctl credentials clear`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := newClient().ClearCredentials(context.Background()); err != nil {
				return err
			}
			fmt.Println("Credentials removed.")
			return nil
		},
	}
}

func credentialsTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "test",
		Short:   "Test the stored credentials against the POS",
		Example: `  invctl credentials test`,
		RunE: func(_ *cobra.Command, _ []string) error {
			res, err := newClient().TestCredentials(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(res)
			}

			fmt.Printf("Connection to %s OK.\n", res.Generation)
			return nil
		},
	}
}
