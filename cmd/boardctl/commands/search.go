package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"jobboard-portal/internal/board"
	"jobboard-portal/internal/catalog"
	"jobboard-portal/internal/models"

	"github.com/spf13/cobra"
)

func newSearchCommand(e *env) *cobra.Command {
	var (
		term         string
		department   string
		locationType string
		page         int
		pageSize     int
		output       string
	)

	cmd := &cobra.Command{
		Use:   "search [TERM]",
		Short: "Run the landing page search against the catalog",
		Long: `Filter the catalog the way the landing page does and print one page.

TERM matches title, company or description, ignoring case. --department and
--type take exact values; "all" or an empty value means no constraint.

Output Formats:
  default - Table with the page navigation underneath
  json    - The page as a JSON object

Examples:
  boardctl search engineer
  boardctl search --department=Design --type=Remote
  boardctl search --page=2 --output=json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer e.close()
			if len(args) == 1 {
				term = args[0]
			}
			if output != "default" && output != "json" {
				return failure(cmd.ErrOrStderr(), "invalid output format", fmt.Errorf("unknown format %q", output), "Valid formats: default, json")
			}

			db, err := e.database()
			if err != nil {
				return failure(cmd.ErrOrStderr(), "cannot open database", err, "")
			}
			if pageSize <= 0 {
				pageSize = e.cfg.Board.PageSize
			}

			jobs, err := catalog.NewDBSource(db).List(cmd.Context())
			if err != nil {
				return failure(cmd.ErrOrStderr(), "cannot load catalog", err, "Run `boardctl seed` first.")
			}

			criteria := board.NewCriteria(term, department, locationType)
			result, err := board.Paginate(board.Filter(jobs, criteria), pageSize, page)
			if err != nil {
				return failure(cmd.ErrOrStderr(), "invalid page size", err, "")
			}

			if output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printPage(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&department, "department", "d", "", "Department (Engineering, Design, Product, Data Science, Security)")
	cmd.Flags().StringVarP(&locationType, "type", "t", "", "Location type (Remote, Hybrid, On-site)")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Jobs per page (default BOARD_PAGE_SIZE)")
	cmd.Flags().StringVarP(&output, "output", "o", "default", "Output format: default or json")
	return cmd
}

func printPage(w io.Writer, p board.Page[models.JobListing]) {
	if p.Total == 0 {
		warning(w, "No jobs match these filters")
		return
	}

	bold.Fprintf(w, "%-4s %-32s %-22s %-13s %-8s %s\n", "ID", "TITLE", "COMPANY", "DEPARTMENT", "TYPE", "POSTED")
	for _, j := range p.Items {
		title := truncate(j.Title, 30)
		if j.Featured {
			title = "* " + title
		}
		fmt.Fprintf(w, "%-4s %-32s %-22s %-13s %-8s %s\n",
			j.ID, title, truncate(j.Company, 22), j.Department, j.LocationType, j.PostedDate.Format("2006-01-02"))
	}
	if len(p.Items) == 0 {
		warning(w, "Page %d is past the end", p.PageNumber)
	}

	fmt.Fprintf(w, "\nPage %d of %d, %d jobs  %s\n", p.PageNumber, p.TotalPages, p.Total, navigation(p.PageNumber, p.TotalPages))
}

// navigation renders the page bar, e.g. "1 … 4 [5] 6 … 9".
func navigation(current, total int) string {
	links := board.VisiblePages(current, total)
	parts := make([]string, 0, len(links))
	for _, l := range links {
		switch {
		case l.Ellipsis:
			parts = append(parts, "…")
		case l.Current:
			parts = append(parts, fmt.Sprintf("[%d]", l.Number))
		default:
			parts = append(parts, fmt.Sprintf("%d", l.Number))
		}
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
