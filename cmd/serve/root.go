package serve

import (
	"fmt"
	"strings"

	cmdUtil "github.com/ValentinKolb/nkv/cmd/util"
	"github.com/ValentinKolb/nkv/rpc/common"
	"github.com/ValentinKolb/nkv/rpc/serializer"
	"github.com/ValentinKolb/nkv/rpc/server"
	"github.com/ValentinKolb/nkv/rpc/transport"
	"github.com/ValentinKolb/nkv/rpc/transport/http"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the nkv server",
		Long:    `Start the nkv server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is NKV_<flag> (e.g. NKV_ENDPOINT=0.0.0.0:9090)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "name"
	ServeCmd.PersistentFlags().String(key, "nkv", cmdUtil.WrapString("Display name of this server instance"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080)"))

	key = "db"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Path of the SQLite database backing the durable tier. Leave empty to run memory-only; persistent operations will then be rejected as unavailable"))

	key = "static-tokens"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Comma-separated list of tokens that resolve to full access without a database lookup"))

	key = "permission-ttl"
	ServeCmd.PersistentFlags().Int64(key, 60, cmdUtil.WrapString("How long resolved token permissions are cached (in seconds)"))

	key = "batch-size"
	ServeCmd.PersistentFlags().Int(key, 500, cmdUtil.WrapString("Queue length at which buffered durable writes are flushed immediately"))

	key = "batch-interval"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Interval at which partial batches of buffered durable writes are flushed (in seconds)"))

	key = "sweep-interval"
	ServeCmd.PersistentFlags().Int64(key, 300, cmdUtil.WrapString("Interval at which the memory tier is swept for expired entries and empty namespaces (in seconds)"))

	key = "prune-chunk-size"
	ServeCmd.PersistentFlags().Int(key, 256, cmdUtil.WrapString("Number of keys the sweeper processes per namespace before yielding"))

	key = "reap-interval"
	ServeCmd.PersistentFlags().Int64(key, 60, cmdUtil.WrapString("Interval at which expired durable rows are deleted (in seconds)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Name = viper.GetString("name")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.DatabaseDSN = viper.GetString("db")
	serveCmdConfig.PermissionTTLSecond = viper.GetInt64("permission-ttl")
	serveCmdConfig.BatchSize = viper.GetInt("batch-size")
	serveCmdConfig.BatchIntervalSecond = viper.GetInt64("batch-interval")
	serveCmdConfig.SweepIntervalSecond = viper.GetInt64("sweep-interval")
	serveCmdConfig.PruneChunkSize = viper.GetInt("prune-chunk-size")
	serveCmdConfig.ReapIntervalSecond = viper.GetInt64("reap-interval")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	// parse static tokens
	serveCmdConfig.StaticTokens = nil
	if tokens := viper.GetString("static-tokens"); tokens != "" {
		for _, token := range strings.Split(tokens, ",") {
			if token = strings.TrimSpace(token); token != "" {
				serveCmdConfig.StaticTokens = append(serveCmdConfig.StaticTokens, token)
			}
		}
	}

	// a server with neither a database nor static tokens would reject
	// every request
	if serveCmdConfig.DatabaseDSN == "" && len(serveCmdConfig.StaticTokens) == 0 {
		return fmt.Errorf("either --db or --static-tokens must be set")
	}

	return nil
}

// run starts the nkv server
func run(_ *cobra.Command, _ []string) error {

	// parse the serializer
	var s serializer.IRPCSerializer
	switch viper.GetString("serializer") {
	case "json":
		s = serializer.NewJSONSerializer()
	case "gob":
		s = serializer.NewGOBSerializer()
	default:
		return fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}

	// Parse the transport
	var t transport.IRPCServerTransport
	switch viper.GetString("transport") {
	case "http":
		t = http.NewHttpServerTransport()
	default:
		return fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)

	return serv.Serve()
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("nkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
