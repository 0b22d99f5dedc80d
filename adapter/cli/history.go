package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	showDate     string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent briefs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()
		if a == nil || a.Briefs == nil {
			return errors.New("history requires a configured application")
		}

		briefs, err := a.Briefs.ListRecent(cmd.Context(), a.CurrentUserID, historyLimit)
		if err != nil {
			return err
		}
		if len(briefs) == 0 {
			fmt.Println("No briefs yet")
			return nil
		}

		for _, b := range briefs {
			status := "draft"
			if b.Sent() {
				status = "sent " + b.SentAt().Format("15:04 MST")
			}
			fmt.Printf("%s  %2d meetings  %s\n", b.Date(), b.MeetingCount(), status)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a stored brief",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()
		if a == nil || a.Briefs == nil {
			return errors.New("show requires a configured application")
		}

		date, err := resolveDate(showDate, a.Location())
		if err != nil {
			return err
		}
		brief, err := a.Briefs.FindByDate(cmd.Context(), a.CurrentUserID, date.Format("2006-01-02"))
		if err != nil {
			return err
		}

		fmt.Println(brief.Content())
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of briefs to list")
	showCmd.Flags().StringVar(&showDate, "date", "", "date to show (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
}
