package cli

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var authCode string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication helpers",
}

var authURLCmd = &cobra.Command{
	Use:   "url",
	Short: "Generate the OAuth2 authorization URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()
		if a == nil || a.OAuth == nil {
			return errors.New("auth requires OAuth credentials in the configuration")
		}

		state := uuid.New().String()
		fmt.Println(a.OAuth.AuthURL(state))
		fmt.Printf("State: %s\n", state)
		return nil
	},
}

var authExchangeCmd = &cobra.Command{
	Use:   "exchange",
	Short: "Exchange an OAuth2 code for tokens and store them",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()
		if a == nil || a.OAuth == nil {
			return errors.New("auth requires OAuth credentials in the configuration")
		}
		if authCode == "" {
			return errors.New("missing --code")
		}

		token, err := a.OAuth.ExchangeAndStore(cmd.Context(), a.CurrentUserID, authCode)
		if err != nil {
			return err
		}
		fmt.Printf("Tokens stored, access token valid until %s\n",
			token.Expiry.Format("2006-01-02 15:04 MST"))
		return nil
	},
}

func init() {
	authExchangeCmd.Flags().StringVar(&authCode, "code", "", "authorization code from the OAuth redirect")
	authCmd.AddCommand(authURLCmd)
	authCmd.AddCommand(authExchangeCmd)
	rootCmd.AddCommand(authCmd)
}
