package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"ecgrisk/adapters/excel"
	"ecgrisk/adapters/postgres"
	"ecgrisk/domain/patient"
	"ecgrisk/internal/errors"
	"ecgrisk/internal/migration"
)

func main() {
	_ = godotenv.Load()

	var databaseURL, patientsFile string
	var seed bool

	rootCmd := &cobra.Command{
		Use:   "ecgrisk-migrate [up|status]",
		Short: "Run database migrations",
		Long: `Run database schema migrations.

Commands:
  up      Apply all pending migrations
  status  Show migration status`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return errors.ConfigInvalid("DATABASE_URL or --database-url is required")
			}
			db, err := sqlx.Connect("postgres", databaseURL)
			if err != nil {
				return errors.Wrap(err, "failed to connect to database")
			}
			defer db.Close()

			runner, err := migration.NewRunner()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			switch args[0] {
			case "up":
				if err := runner.Run(ctx, db); err != nil {
					return err
				}
				if seed {
					catalog := patient.Catalog()
					if patientsFile != "" {
						if catalog, err = excel.NewDataReader(patientsFile).ReadPatients(); err != nil {
							return err
						}
					}
					if err := postgres.NewPatientRepository(db).Seed(ctx, catalog); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %s\n", runner.Version())
				return nil
			case "status":
				statuses, err := runner.Status(ctx, db)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
				for _, s := range statuses {
					fmt.Fprintf(tw, "%s\t%s\t%t\n", s.Version, s.Name, s.Applied)
				}
				return tw.Flush()
			default:
				return errors.InvalidInput("unknown action " + args[0])
			}
		},
	}
	rootCmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	rootCmd.Flags().BoolVar(&seed, "seed", true, "Upsert the patient catalog after migrating")
	rootCmd.Flags().StringVar(&patientsFile, "patients", os.Getenv("PATIENTS_FILE"), "xlsx or csv catalog to seed instead of the built-in cases")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
