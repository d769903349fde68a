package commands

import (
	"jobboard-portal/internal/database"
	"jobboard-portal/internal/models"

	"github.com/spf13/cobra"
)

func newSeedCommand(e *env) *cobra.Command {
	var (
		file   string
		upsert bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load job listings into the catalog",
		Long: `Load job listings into the catalog table.

Without --file the built-in catalog is inserted, but only into an empty
table. With --file the YAML catalog is validated and upserted by id, so
listings can be corrected and re-applied.

Examples:
  # First start
  boardctl seed

  # Apply an edited catalog
  boardctl seed --file ./catalog.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer e.close()
			out := cmd.OutOrStdout()

			db, err := e.database()
			if err != nil {
				return failure(cmd.ErrOrStderr(), "cannot open database", err, "Check DB_DRIVER and SQLITE_PATH or the DB_* settings.")
			}
			if err := database.AutoMigrate(db); err != nil {
				return failure(cmd.ErrOrStderr(), "cannot migrate database", err, "")
			}

			if file == "" && !upsert {
				step(out, "Seeding built-in catalog")
				if err := database.SeedJobs(db, e.logger); err != nil {
					return failure(cmd.ErrOrStderr(), "seeding failed", err, "")
				}
				var count int64
				db.Model(&models.JobListing{}).Count(&count)
				success(out, "Catalog holds %d jobs", count)
				return nil
			}

			var jobs []models.JobListing
			if file != "" {
				step(out, "Reading %s", file)
				jobs, err = database.LoadCatalogFile(file)
			} else {
				jobs, err = database.DefaultCatalog()
			}
			if err != nil {
				return failure(cmd.ErrOrStderr(), "invalid catalog", err, "Every job needs a unique id, a known department and locationType, and salary min <= max.")
			}

			n, err := database.UpsertJobs(db, jobs)
			if err != nil {
				return failure(cmd.ErrOrStderr(), "upsert failed", err, "")
			}
			success(out, "Upserted %d jobs", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog to upsert instead of the built-in one")
	cmd.Flags().BoolVar(&upsert, "upsert", false, "Upsert the built-in catalog even when the table is not empty")
	return cmd
}
