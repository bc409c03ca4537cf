package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vbonduro/stampcam/internal/domain"
)

func newShootCommand(ctx *commandContext) *cobra.Command {
	var (
		kindFlag  string
		labelFlag string
		imagePath string
		deviceKey string
	)

	cmd := &cobra.Command{
		Use:   "shoot",
		Short: "Capture a frame for the active device",
		Long: "Capture a frame for the active device. Kinds: overview, lamp, port, label,\n" +
			"ipaddress, or free together with --label.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.KindFromInput(kindFlag, labelFlag)
			if err != nil {
				return err
			}
			f, err := os.Open(imagePath)
			if err != nil {
				return fmt.Errorf("open frame: %w", err)
			}
			defer f.Close()

			return ctx.withApp(cmd.Context(), func(a *app) error {
				src, err := a.service.DecodeFrame(f)
				if err != nil {
					return err
				}
				if deviceKey != "" {
					if _, err := a.service.SelectDevice(cmd.Context(), deviceKey); err != nil {
						return err
					}
				}
				res, err := a.service.Shoot(cmd.Context(), src, kind)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Shot %d: %s %s (%dx%d, %s)\n",
					res.Shot.ID, res.Shot.DeviceKey, res.Shot.Kind.DisplayName(),
					res.Shot.Full.Width, res.Shot.Full.Height, humanize.Bytes(uint64(res.Shot.FullSize)))
				if res.Checked {
					fmt.Fprintf(out, "Device %s is complete\n", res.Shot.DeviceKey)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "Shot kind")
	cmd.Flags().StringVar(&labelFlag, "label", "", "Label for --kind free")
	cmd.Flags().StringVar(&imagePath, "image", "", "JPEG, PNG or WebP frame to capture")
	cmd.Flags().StringVar(&deviceKey, "device", "", "Select this device key before shooting")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func newShotCommand(ctx *commandContext) *cobra.Command {
	shotCmd := &cobra.Command{
		Use:   "shot",
		Short: "Inspect and delete shots",
	}

	shotCmd.AddCommand(&cobra.Command{
		Use:   "list [key]",
		Short: "List shots of a device (default: active device), newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			}
			return ctx.withApp(cmd.Context(), func(a *app) error {
				shots, err := a.service.ListShots(cmd.Context(), key)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(shots))
				for _, s := range shots {
					rows = append(rows, []string{
						strconv.FormatInt(s.ID, 10),
						s.Kind.DisplayName(),
						s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
						fmt.Sprintf("%dx%d", s.Full.Width, s.Full.Height),
						humanize.Bytes(uint64(s.FullSize)),
					})
				}
				aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable([]string{"ID", "Kind", "Taken", "Size", "Bytes"}, rows, aligns, isTerminal(out)))
				return nil
			})
		},
	})

	shotCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a shot and its images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("%w: shot id %q is not a number", domain.ErrInvalidInput, args[0])
			}
			return ctx.withApp(cmd.Context(), func(a *app) error {
				if err := a.service.DeleteShot(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Shot %d deleted\n", id)
				return nil
			})
		},
	})

	return shotCmd
}
