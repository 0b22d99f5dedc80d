package cli

import (
	"errors"
	"fmt"

	briefingDomain "github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
	"github.com/spf13/cobra"
)

var (
	settingsTime     string
	settingsTimezone string
	settingsEmail    string
	settingsPaused   bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage delivery settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show current delivery settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()
		if a == nil || a.Settings == nil {
			return errors.New("settings require a configured application")
		}

		settings, err := a.Settings.Get(cmd.Context(), a.CurrentUserID)
		if errors.Is(err, briefingDomain.ErrSettingsNotFound) {
			fmt.Println("No delivery settings, run: morningbrief settings set")
			return nil
		}
		if err != nil {
			return err
		}

		status := "active"
		if !settings.Active {
			status = "paused"
		}
		fmt.Printf("Delivery: %s %s to %s (%s)\n",
			settings.DeliveryTime, settings.Timezone, settings.Email, status)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update delivery settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()
		if a == nil || a.Settings == nil {
			return errors.New("settings require a configured application")
		}

		settings, err := briefingDomain.NewDeliverySettings(
			a.CurrentUserID, settingsTime, settingsTimezone, settingsEmail)
		if err != nil {
			return err
		}
		settings.Active = !settingsPaused

		if err := a.Settings.Save(cmd.Context(), settings); err != nil {
			return err
		}
		fmt.Printf("Delivery set to %s %s for %s\n",
			settings.DeliveryTime, settings.Timezone, settings.Email)
		return nil
	},
}

func init() {
	settingsSetCmd.Flags().StringVar(&settingsTime, "time", "07:00", "delivery time (HH:MM)")
	settingsSetCmd.Flags().StringVar(&settingsTimezone, "timezone", "America/New_York", "IANA timezone")
	settingsSetCmd.Flags().StringVar(&settingsEmail, "email", "", "delivery email address")
	settingsSetCmd.Flags().BoolVar(&settingsPaused, "paused", false, "pause delivery")
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
