package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/furni4/internal/app"
	"github.com/Additional-Code/furni4/internal/auth"
	"github.com/Additional-Code/furni4/internal/migration"
	"github.com/Additional-Code/furni4/internal/report"
	"github.com/Additional-Code/furni4/internal/seeder"
	ordersvc "github.com/Additional-Code/furni4/internal/service/order"
)

// NewRootCommand builds the root furni4 CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "furni4",
		Short:         "Furniture order ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newUserCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newWorkerCmd())

	return root
}

// Execute runs the furni4 CLI.
func Execute(ctx context.Context) error {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), app.Module)
		},
	}
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Consume ledger events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), app.Worker)
		},
	})
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the ledger schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			return runWithApp(cmd.Context(), fx.Options(app.Core, fx.Populate(&mig)), func(ctx context.Context) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				version, err := mig.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			return runWithApp(cmd.Context(), fx.Options(app.Core, fx.Populate(&mig)), func(ctx context.Context) error {
				statuses, err := mig.Status(ctx)
				if err != nil {
					return err
				}
				return writeStatus(cmd.OutOrStdout(), statuses)
			})
		},
	}

	cmd.AddCommand(upCmd, statusCmd)
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load reference orders and the configured administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *seeder.Seeder
			opts := fx.Options(app.Core, migration.OnStart, seeder.Module, fx.Populate(&seed))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				n, err := seed.Orders(ctx)
				if err != nil {
					return err
				}
				if err := seed.Admin(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d orders\n", n)
				return nil
			})
		},
	}
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage dashboard credentials",
	}

	var username, password, role string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user or reset its password and role",
		RunE: func(cmd *cobra.Command, args []string) error {
			var verifier *auth.Verifier
			opts := fx.Options(app.Core, migration.OnStart, fx.Populate(&verifier))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := verifier.Enroll(ctx, username, password, role); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %s saved with role %s\n", username, role)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&username, "username", "", "Login name")
	addCmd.Flags().StringVar(&password, "password", "", "Password")
	addCmd.Flags().StringVar(&role, "role", auth.RoleVendor, "Role (admin or vendor)")
	_ = addCmd.MarkFlagRequired("username")
	_ = addCmd.MarkFlagRequired("password")

	cmd.AddCommand(addCmd)
	return cmd
}

func newReportCmd() *cobra.Command {
	var start, end, product string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print sales totals per product",
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := report.ParseCriteria(start, end, product)
			if err != nil {
				return err
			}
			var svc *ordersvc.Service
			opts := fx.Options(app.Core, migration.OnStart, fx.Populate(&svc))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				rep, err := svc.Report(ctx, criteria)
				if err != nil {
					return err
				}
				return writeReport(cmd.OutOrStdout(), rep)
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "First order date, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "Last order date, YYYY-MM-DD")
	cmd.Flags().StringVar(&product, "product", report.AllProducts, "Product name")
	return cmd
}

func writeStatus(out io.Writer, statuses []migration.Status) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
	for _, s := range statuses {
		applied := "pending"
		if s.Applied {
			applied = s.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%05d\t%s\t%s\n", s.Version, s.Name, applied)
	}
	return w.Flush()
}

func writeReport(out io.Writer, rep ordersvc.Report) error {
	if rep.Summary.Orders == 0 {
		_, err := fmt.Fprintln(out, "no data available")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "period\t%s .. %s\n", rep.Criteria.Start, rep.Criteria.End)
	fmt.Fprintf(w, "product\t%s\n\n", rep.Criteria.Product)
	fmt.Fprintln(w, "PRODUCT\tORDERS\tTOTAL PAID")
	for _, p := range rep.Products {
		fmt.Fprintf(w, "%s\t%d\t%s\n", p.Product, p.Orders, p.TotalPaid.StringFixed(2))
	}
	fmt.Fprintf(w, "\ntotal\t%d\t%s\n", rep.Summary.Orders, rep.Summary.TotalPaid.StringFixed(2))
	fmt.Fprintf(w, "pending\t\t%s\n", rep.Summary.PendingBalance.StringFixed(2))
	return w.Flush()
}

func runUntilDone(ctx context.Context, opts fx.Option) error {
	application := fx.New(opts)
	if err := application.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return application.Stop(stopCtx)
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
