package ns

import (
	"github.com/ValentinKolb/nkv/cmd/util"
	"github.com/ValentinKolb/nkv/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcClient client.INamespaceClient

	// NamespaceCommands represents the namespace command group
	NamespaceCommands = &cobra.Command{
		Use:               "ns",
		Short:             "Perform namespace operations",
		PersistentPreRunE: setupClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the namespace command
	util.SetupRPCClientFlags(NamespaceCommands)

	// Tier selection applies to every subcommand
	NamespaceCommands.PersistentFlags().Bool("persist", false, util.WrapString("Use the durable tier instead of the memory tier"))

	// Add subcommands
	NamespaceCommands.AddCommand(setCmd)
	NamespaceCommands.AddCommand(getCmd)
	NamespaceCommands.AddCommand(delCmd)
	NamespaceCommands.AddCommand(listCmd)
	NamespaceCommands.AddCommand(sortCmd)
	NamespaceCommands.AddCommand(rankCmd)
	NamespaceCommands.AddCommand(batchCmd)
}

// setupClient initializes the RPC client
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the namespace client
	rpcClient, err = client.NewNamespaceClient(
		*config,
		t,
		s,
	)

	return err
}
