package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vbonduro/stampcam/internal/domain"
	"github.com/vbonduro/stampcam/internal/identity"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Show or set the project name",
	}

	projectCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the project name and current selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				m := a.service.Meta()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Project:         %s\n", orDash(m.ProjectName))
				fmt.Fprintf(out, "Active room:     %s\n", orDash(m.ActiveRoom))
				fmt.Fprintf(out, "Active device:   %s\n", orDash(m.ActiveDeviceKey))
				fmt.Fprintf(out, "Incomplete only: %s\n", yesNo(m.ShowIncompleteOnly))
				return nil
			})
		},
	})

	projectCmd.AddCommand(&cobra.Command{
		Use:   "set <name>",
		Short: "Set the project name used in export paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				m, err := a.service.SetProject(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Project set to %q\n", m.ProjectName)
				return nil
			})
		},
	})

	return projectCmd
}

func newRoomCommand(ctx *commandContext) *cobra.Command {
	roomCmd := &cobra.Command{
		Use:   "room",
		Short: "Manage rooms",
	}

	roomCmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Register a room and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				room, err := a.service.RegisterRoom(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Room %q active\n", room.Name)
				return nil
			})
		},
	})

	roomCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				rooms, err := a.service.ListRooms(cmd.Context())
				if err != nil {
					return err
				}
				active := a.service.Meta().ActiveRoom
				rows := make([][]string, 0, len(rooms))
				for _, r := range rooms {
					mark := ""
					if r.Name == active {
						mark = "*"
					}
					rows = append(rows, []string{mark, r.Name, r.CreatedAt.Local().Format("2006-01-02 15:04")})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable([]string{"", "Room", "Registered"}, rows, nil, isTerminal(out)))
				return nil
			})
		},
	})

	roomCmd.AddCommand(&cobra.Command{
		Use:   "select <name>",
		Short: "Make a registered room active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				m, err := a.service.SelectRoom(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Room %q active\n", m.ActiveRoom)
				return nil
			})
		},
	})

	roomCmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a room with its devices and photos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				if err := a.service.DeleteRoom(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Room %q deleted\n", identity.NormalizeRoomName(args[0]))
				return nil
			})
		},
	})

	return roomCmd
}

func newDeviceCommand(ctx *commandContext) *cobra.Command {
	deviceCmd := &cobra.Command{
		Use:   "device",
		Short: "Manage devices",
	}

	var addRoom string
	addCmd := &cobra.Command{
		Use:   "add <index>",
		Short: "Register device <index> (0 for free capture) and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: device index %q is not a number", domain.ErrInvalidInput, args[0])
			}
			return ctx.withApp(cmd.Context(), func(a *app) error {
				dev, err := a.service.AddDevice(cmd.Context(), addRoom, index)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Device %s active\n", dev.Key)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&addRoom, "room", "", "Room (default: active room)")
	deviceCmd.AddCommand(addCmd)

	var listRoom string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List devices with their checklist progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				devices, err := a.service.ListDevices(cmd.Context(), listRoom)
				if err != nil {
					return err
				}
				active := a.service.Meta().ActiveDeviceKey
				headers := []string{"", "Device", "Type", "Shots", "Missing", "Checked"}
				rows := make([][]string, 0, len(devices))
				for _, d := range devices {
					mark := ""
					if d.Key == active {
						mark = "*"
					}
					rows = append(rows, []string{
						mark,
						identity.MakeDisplayLabel(d.RoomName, d.Index),
						orDash(d.DeviceType),
						strconv.Itoa(d.Shots),
						missingList(d.Missing()),
						yesNo(d.Checked),
					})
				}
				aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(headers, rows, aligns, isTerminal(out)))
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&listRoom, "room", "", "Room (default: active room)")
	deviceCmd.AddCommand(listCmd)

	deviceCmd.AddCommand(&cobra.Command{
		Use:   "select <key>",
		Short: "Make a device active, e.g. \"Server Room::007\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				dev, err := a.service.SelectDevice(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Device %s active\n", dev.Key)
				return nil
			})
		},
	})

	deviceCmd.AddCommand(&cobra.Command{
		Use:   "type <key> <type>",
		Short: "Set the free-text device type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				dev, err := a.service.SetDeviceType(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Device %s type %q\n", dev.Key, dev.DeviceType)
				return nil
			})
		},
	})

	return deviceCmd
}

func missingList(kinds []domain.Kind) string {
	if len(kinds) == 0 {
		return "-"
	}
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.DisplayName())
	}
	return strings.Join(names, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
