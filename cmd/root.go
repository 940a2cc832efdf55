package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/nkv/cmd/ns"
	"github.com/ValentinKolb/nkv/cmd/serve"
	"github.com/ValentinKolb/nkv/cmd/token"
	"github.com/ValentinKolb/nkv/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "nkv",
		Short: "namespaced ephemeral data store",
		Long: fmt.Sprintf(`nkv (v%s)

A multi-tenant ephemeral data store: namespaced JSON entries with
per-entry TTL, optional durable persistence and secondary queries
(recency pagination, sorted pagination, rank).`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of nkv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("nkv v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(ns.NamespaceCommands)
	RootCmd.AddCommand(token.TokenCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
