package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/xrayboard/internal/xray"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage VLESS clients",
	Long: `List, add, remove and rotate the proxy's VLESS clients.

Every change backs up the proxy config, applies it, and restarts the
service; if the restart fails the previous config is restored.

Examples:
  xrayboard clients list
  xrayboard clients add alice
  xrayboard clients link alice
  xrayboard clients rotate alice
  xrayboard clients remove alice`,
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List provisioned clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := xray.NewManager(cfg)
		clients, err := manager.ListClients()
		if err != nil {
			return err
		}
		if len(clients) == 0 {
			fmt.Println("No clients provisioned")
			return nil
		}
		for _, c := range clients {
			fmt.Printf("%-20s %s\n", c.Email, c.ID)
		}
		return nil
	},
}

var clientsAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Provision a new client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := xray.NewManager(cfg)
		client, err := manager.AddClient(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Added %s (%s)\n", client.Email, client.ID)
		if link, err := manager.BuildLink(context.Background(), client.Email); err == nil {
			fmt.Println(link)
		}
		return nil
	},
}

var clientsRemoveCmd = &cobra.Command{
	Use:   "remove <email>",
	Short: "Remove a client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := xray.NewManager(cfg)
		if err := manager.RemoveClient(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

var clientsRotateCmd = &cobra.Command{
	Use:   "rotate <email>",
	Short: "Replace a client's credential",
	Long:  "Generate a new UUID for a client, invalidating the old share link.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := xray.NewManager(cfg)
		client, err := manager.RotateClient(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Rotated %s (new id %s)\n", client.Email, client.ID)
		return nil
	},
}

var clientsLinkCmd = &cobra.Command{
	Use:   "link <email>",
	Short: "Print a client's share link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := xray.NewManager(cfg)
		link, err := manager.BuildLink(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(link)
		return nil
	},
}

func init() {
	clientsCmd.AddCommand(clientsListCmd)
	clientsCmd.AddCommand(clientsAddCmd)
	clientsCmd.AddCommand(clientsRemoveCmd)
	clientsCmd.AddCommand(clientsRotateCmd)
	clientsCmd.AddCommand(clientsLinkCmd)
}
