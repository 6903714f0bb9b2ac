package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"siteauditor/internal/config"
	"siteauditor/internal/service"
)

const defaultAuditTimeout = 5 * time.Minute

var auditCmd = &cobra.Command{
	Use:   "audit [urls...]",
	Short: "Audit one or more sites and print the results as JSON",
	Long: `Audit runs the full check battery against each origin and prints the
results to stdout. A single URL prints one audit report; several URLs print
a list of per-origin outcomes, where an unreachable site is reported in its
slot instead of failing the whole run.`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().Duration("timeout", 0, "overall deadline for the run (default 5m)")
	auditCmd.Flags().Bool("enrichment", false, "look up company officers for each site")

	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more site URLs")
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultAuditTimeout
	}
	enrichment, _ := cmd.Flags().GetBool("enrichment")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	svc := service.New(config.AppConfig)
	opts := service.Options{Enrichment: enrichment}

	var out interface{}
	if len(args) == 1 {
		result, err := svc.AuditOne(ctx, args[0], opts)
		if err != nil {
			return fmt.Errorf("audit %s: %w", args[0], err)
		}
		out = result
	} else {
		outcomes, err := svc.AuditBatch(ctx, args, opts)
		if err != nil {
			return err
		}
		out = outcomes
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
