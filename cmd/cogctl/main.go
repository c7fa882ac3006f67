// Package main provides the cogctl binary: a command-line client for the
// cogmeshd control gateway.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "cogctl"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "cogctl",
		Short: "Control a running cogmesh daemon",
		Long: `Cogctl drives the cogmeshd control gateway: it creates cognitive
namespaces, binds neural channels, starts agent swarms, triggers emergence
detection, and inspects the mesh's listings and statistics.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&server, "server", "http://localhost:8420",
		"Address of the cogmeshd gateway")

	client := func() *Client { return NewClient(server) }

	cmd.AddCommand(&cobra.Command{
		Use:   "create-namespace <domain> <path>",
		Short: "Create a cognitive namespace",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return ctl(client(), "create-namespace", args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "bind-channel <source> <target> [bandwidth]",
		Short: "Bind a neural channel between two namespaces",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(_ *cobra.Command, args []string) error {
			return ctl(client(), "bind-channel", args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "start-swarm <id> <domain> [agents]",
		Short: "Start a cognitive swarm with agent workers",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(_ *cobra.Command, args []string) error {
			return ctl(client(), "start-swarm", args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "detect-emergence [domain] [threshold]",
		Short: "Trigger one emergence detection pass",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return ctl(client(), "detect-emergence", args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "adapt-namespace <domain> [auto|manual]",
		Short: "Adapt a namespace or switch its adaptation mode",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			return ctl(client(), "adapt-namespace", args)
		},
	})

	for _, listing := range []struct {
		use, short, path string
	}{
		{"domains", "List cognitive domains", "/domains"},
		{"channels", "List neural channels", "/channels"},
		{"swarms", "List active swarms", "/swarms"},
		{"swarm-status", "Show swarm coordination status", "/swarms"},
		{"patterns", "List detected emergent patterns", "/patterns"},
		{"stats", "Show aggregate mesh statistics", "/stats"},
		{"monitor", "Show the one-screen mesh summary", "/"},
	} {
		path := listing.path
		cmd.AddCommand(&cobra.Command{
			Use:   listing.use,
			Short: listing.short,
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				out, err := client().Get(path)
				if err != nil {
					return err
				}
				fmt.Print(out)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

// ctl sends one assembled control line and prints the response.
func ctl(c *Client, verb string, args []string) error {
	out, err := c.Ctl(verb + " " + strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
