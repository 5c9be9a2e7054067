package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var advisoriesJSON bool

var advisoriesCmd = &cobra.Command{
	Use:   "advisories <slug>",
	Short: "Inspect the advisory dataset for a component slug",
	Long: `Prints the known advisories for a WordPress component slug. Use the slug
"wordpress" for core advisories.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadAdvisories()
		if err != nil {
			return err
		}

		slug := args[0]
		advisories := store.AdvisoriesFor(slug)

		if advisoriesJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(advisories)
		}

		if len(advisories) == 0 {
			color.Yellow("No advisories known for %q", slug)
			return nil
		}

		if latest, ok := store.LatestVersion(slug); ok {
			color.White("%s (latest version: %s)", slug, latest)
		} else {
			color.White("%s", slug)
		}
		for _, adv := range advisories {
			color.Cyan("\n%s [%s]", adv.Title, adv.Severity)
			if adv.CVEID != "" {
				fmt.Printf("  CVE:      %s\n", adv.CVEID)
			}
			if adv.AffectedRange != "" {
				fmt.Printf("  Affected: %s\n", adv.AffectedRange)
			}
			if adv.FixedIn != "" {
				fmt.Printf("  Fixed in: %s\n", adv.FixedIn)
			}
			if adv.CVSSScore > 0 {
				fmt.Printf("  CVSS:     %.1f\n", adv.CVSSScore)
			}
			if adv.Description != "" {
				fmt.Printf("  %s\n", adv.Description)
			}
		}
		return nil
	},
}

func init() {
	advisoriesCmd.Flags().BoolVar(&advisoriesJSON, "json", false, "emit advisories as JSON")
	rootCmd.AddCommand(advisoriesCmd)
}
