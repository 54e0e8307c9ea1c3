package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/your-org/reconnect/internal/models"
	"github.com/your-org/reconnect/internal/registry"
)

func newSearchCommand(opts *options) *cobra.Command {
	var (
		location string
		minAge   int
		maxAge   int
		category string
		since    string
		page     int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search registered persons; no filters lists everyone",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := registry.Criteria{Location: strings.TrimSpace(location)}
			if cmd.Flags().Changed("min-age") {
				c.AgeMin = &minAge
			}
			if cmd.Flags().Changed("max-age") {
				c.AgeMax = &maxAge
			}
			cat, err := parseCategory(category, true)
			if err != nil {
				return err
			}
			c.Category = cat
			if since != "" {
				t, err := registry.ParseDate(since)
				if err != nil {
					return fmt.Errorf("--since must be YYYY-MM-DD: %w", err)
				}
				c.ReportedOnOrAfter = &t
			}

			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			result := s.state.Search(c)
			if page > 1 {
				result = s.state.GoTo(page)
			}
			printPage(cmd.OutOrStdout(), result)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&location, "location", "l", "", "case-insensitive substring of the last known location")
	f.IntVar(&minAge, "min-age", 0, "minimum age, inclusive")
	f.IntVar(&maxAge, "max-age", 0, "maximum age, inclusive")
	f.StringVarP(&category, "category", "c", "", "missing, orphaned, homeless, separated or all")
	f.StringVar(&since, "since", "", "reported on or after this date (YYYY-MM-DD)")
	f.IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

// parseCategory accepts "" and, when allowAll is set, "all" as no constraint.
func parseCategory(s string, allowAll bool) (models.Category, error) {
	c := models.Category(strings.ToLower(strings.TrimSpace(s)))
	switch {
	case c == "":
		return "", nil
	case c == models.CategoryAll && allowAll:
		return models.CategoryAll, nil
	case c.Valid():
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}
