package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vbonduro/stampcam/internal/quota"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the survey archive (CSV summaries and photos) as a zip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				dir := outDir
				if dir == "" {
					dir = a.cfg.Export.OutputDir
				}
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
				path := filepath.Join(dir, a.service.ArchiveName(time.Now()))

				f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
				if err != nil {
					return fmt.Errorf("create archive: %w", err)
				}
				res, err := a.service.Export(cmd.Context(), f)
				if cerr := f.Close(); err == nil && cerr != nil {
					err = fmt.Errorf("close archive: %w", cerr)
				}
				if err != nil {
					_ = os.Remove(path)
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Wrote %s (%s)\n", path, humanize.Bytes(uint64(res.Bytes)))
				fmt.Fprintf(out, "%d devices, %d photos\n", res.Devices, res.Photos)
				if res.MissingBlobs > 0 {
					fmt.Fprintf(out, "Skipped %d shots whose image file is missing\n", res.MissingBlobs)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default export.output_dir)")
	return cmd
}

func newWipeCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every room, device, shot and photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("wipe deletes all survey data; rerun with --yes to confirm")
			}
			return ctx.withApp(cmd.Context(), func(a *app) error {
				if err := a.service.Wipe(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All survey data deleted")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show survey progress and disk usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				stats, err := a.service.Stats(cmd.Context())
				if err != nil {
					return err
				}
				m := a.service.Meta()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Project:  %s\n", orDash(m.ProjectName))
				fmt.Fprintf(out, "Rooms:    %d\n", stats.Rooms)
				fmt.Fprintf(out, "Devices:  %d (%d checked)\n", stats.Devices, stats.Checked)
				fmt.Fprintf(out, "Shots:    %d\n", stats.Shots)

				est, err := a.service.StorageStatus(cmd.Context())
				if err != nil {
					fmt.Fprintf(out, "Storage:  unavailable (%v)\n", err)
					return nil
				}
				fmt.Fprintf(out, "Storage:  %s [%s]\n", est.String(), est.Level())
				if est.Level() != quota.LevelOK {
					fmt.Fprintf(out, "Only %s free; export and wipe soon\n", humanize.Bytes(est.Free()))
				}
				return nil
			})
		},
	}
}
