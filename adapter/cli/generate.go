package cli

import (
	"errors"
	"fmt"
	"time"

	briefingApp "github.com/felixgeelhaar/morningbrief/internal/briefing/application"
	"github.com/spf13/cobra"
)

var generateDate string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the brief for a date",
	Long: `Generate fetches the day's meetings, enriches the attendees, and
stores the brief. An existing brief for the same date is replaced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()
		if a == nil || a.Generate == nil {
			return errors.New("brief generation requires a configured application")
		}

		loc := a.Location()
		date, err := resolveDate(generateDate, loc)
		if err != nil {
			return err
		}

		brief, err := a.Generate.Handle(cmd.Context(), briefingApp.GenerateBriefCommand{
			UserID:   a.CurrentUserID,
			Date:     date,
			Location: loc,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Brief for %s (%d meetings)\n\n", brief.Date(), brief.MeetingCount())
		fmt.Println(brief.Content())
		return nil
	},
}

// resolveDate parses a YYYY-MM-DD flag value in the given location, or
// returns the current time when the flag is empty.
func resolveDate(flag string, loc *time.Location) (time.Time, error) {
	if flag == "" {
		return time.Now().In(loc), nil
	}
	date, err := time.ParseInLocation("2006-01-02", flag, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", flag)
	}
	return date, nil
}

func init() {
	generateCmd.Flags().StringVar(&generateDate, "date", "", "date to generate (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(generateCmd)
}
