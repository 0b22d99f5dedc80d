package cli

import (
	"errors"
	"fmt"

	briefingDomain "github.com/felixgeelhaar/morningbrief/internal/briefing/domain"
	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/eventbus"
	"github.com/spf13/cobra"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Publish a delivery request for the worker",
	Long: `Trigger publishes a delivery request onto the event bus. A cron job
calls this at the desired delivery time; the worker picks the request
up and runs the generate-and-send cycle.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()
		if a == nil || a.Publisher == nil {
			return errors.New("triggering requires a configured application")
		}

		event := briefingDomain.NewDeliverRequested(a.CurrentUserID)
		body, err := eventbus.EncodeEvent(event)
		if err != nil {
			return err
		}
		if err := a.Publisher.Publish(cmd.Context(), event.RoutingKey(), body); err != nil {
			return fmt.Errorf("failed to publish delivery request: %w", err)
		}

		fmt.Println("Delivery request published")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(triggerCmd)
}
