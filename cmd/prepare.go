package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"usedcar-market/services"
	"usedcar-market/storage"
)

var (
	prepExport string
	prepAudit  string
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Load, clean and summarise the listings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("export") {
			cfg.ExportPath = prepExport
		}
		if cmd.Flags().Changed("audit") {
			cfg.AuditPath = prepAudit
		}
		for _, out := range []string{cfg.ExportPath, cfg.AuditPath} {
			if err := checkNotInput(out, sourcePaths()); err != nil {
				return err
			}
		}

		snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}

		svc := services.NewReportService(logger)
		svc.Print(cmd.OutOrStdout(), svc.Generate(snap))

		if cfg.ExportPath != "" {
			if err := writePrepared(cfg.ExportPath, snap); err != nil {
				return err
			}
			logger.Info("Prepared listings saved to %s", cfg.ExportPath)
		}
		if cfg.AuditPath != "" {
			if err := writeAudit(cfg.AuditPath, snap); err != nil {
				return err
			}
			logger.Info("Imputation log saved to %s", cfg.AuditPath)
		}
		return nil
	},
}

func init() {
	prepareCmd.Flags().StringVar(&prepExport, "export", "", "write prepared listings to this CSV file")
	prepareCmd.Flags().StringVar(&prepAudit, "audit", "", "write the imputation log to this CSV file")
	rootCmd.AddCommand(prepareCmd)
}

func writePrepared(path string, snap *services.Snapshot) error {
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	if err := w.WritePrepared(snap.Listings); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func writeAudit(path string, snap *services.Snapshot) error {
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteImputations(snap.Imputations); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// checkNotInput refuses to write over a source file.
func checkNotInput(out string, inputs []string) error {
	if out == "" {
		return nil
	}
	o, err := filepath.Abs(out)
	if err != nil {
		return err
	}
	for _, in := range inputs {
		i, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		if i == o {
			return fmt.Errorf("refusing to overwrite input file %s", in)
		}
		if si, err := os.Stat(in); err == nil {
			if so, err := os.Stat(out); err == nil && os.SameFile(si, so) {
				return fmt.Errorf("refusing to overwrite input file %s", in)
			}
		}
	}
	return nil
}
