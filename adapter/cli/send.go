package cli

import (
	"errors"
	"fmt"

	briefingApp "github.com/felixgeelhaar/morningbrief/internal/briefing/application"
	briefingDomain "github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
	"github.com/spf13/cobra"
)

var sendDate string

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a generated brief by email",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()
		if a == nil {
			return errors.New("sending requires a configured application")
		}
		if a.Send == nil {
			return errors.New("delivery is not configured: set OAuth credentials")
		}

		date, err := resolveDate(sendDate, a.Location())
		if err != nil {
			return err
		}
		day := date.Format("2006-01-02")

		err = a.Send.Handle(cmd.Context(), briefingApp.SendBriefCommand{
			UserID: a.CurrentUserID,
			Date:   day,
		})
		switch {
		case errors.Is(err, briefingDomain.ErrAlreadySent):
			fmt.Printf("Brief for %s was already sent\n", day)
			return nil
		case errors.Is(err, briefingDomain.ErrBriefNotFound):
			return fmt.Errorf("no brief for %s, run generate first", day)
		case errors.Is(err, briefingDomain.ErrSettingsNotFound):
			return errors.New("no delivery settings, run: morningbrief settings set")
		case err != nil:
			return err
		}

		fmt.Printf("Brief for %s sent\n", day)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate and send today's brief in one step",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()
		if a == nil {
			return errors.New("running requires a configured application")
		}
		if a.Cycle == nil {
			return errors.New("delivery is not configured: set OAuth credentials")
		}
		if err := a.Cycle.Run(cmd.Context(), a.CurrentUserID); err != nil {
			return err
		}
		fmt.Println("Morning brief cycle complete")
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendDate, "date", "", "date to send (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(runCmd)
}
