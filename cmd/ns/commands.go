package ns

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ValentinKolb/nkv/lib/engine"
	"github.com/ValentinKolb/nkv/lib/tier"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// persistFlag reads the tier selection shared by all subcommands
func persistFlag() bool {
	return viper.GetBool("persist")
}

// parsePayload decodes a JSON object argument
func parsePayload(raw string) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	return payload, nil
}

// printPage renders a page result as indented JSON
func printPage(page *tier.Page) error {
	out, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

var (
	setCmd = &cobra.Command{
		Use:   "set [namespace] [key] [payload]",
		Short: "Stores a JSON payload under a key",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := parsePayload(args[2])
			if err != nil {
				return err
			}
			ttl, _ := cmd.Flags().GetInt64("ttl")
			buffered, _ := cmd.Flags().GetBool("buffered")

			cursor, err := rpcClient.Write(args[0], args[1], payload, ttl, persistFlag(), buffered)
			if err != nil {
				return err
			}
			if buffered {
				fmt.Println("queued for write-behind")
			} else {
				fmt.Printf("set successfully (write cursor %d)\n", cursor)
			}
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [namespace] [key]",
		Short: "Reads the payload for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, ok, err := rpcClient.Get(args[0], args[1], persistFlag())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Printf("key=%s, found=false\n", args[1])
				return nil
			}
			out, err := json.Marshal(data)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=true, payload=%s\n", args[1], out)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [namespace] [key]",
		Short: "Deletes an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := rpcClient.Delete(args[0], args[1], persistFlag())
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, removed=%t\n", args[1], removed)
			return nil
		},
	}
	listCmd = &cobra.Command{
		Use:   "list [namespace]",
		Short: "Pages a namespace from newest to oldest write",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cursor, _ := cmd.Flags().GetInt64("cursor")
			pageSize, _ := cmd.Flags().GetInt("page-size")

			page, err := rpcClient.ListByRecency(args[0], cursor, pageSize, persistFlag())
			if err != nil {
				return err
			}
			return printPage(page)
		},
	}
	sortCmd = &cobra.Command{
		Use:   "sort [namespace] [field]",
		Short: "Pages a namespace ordered by a payload field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageSize, _ := cmd.Flags().GetInt("page-size")
			asc, _ := cmd.Flags().GetBool("asc")
			cursorRaw, _ := cmd.Flags().GetString("cursor")
			defaultRaw, _ := cmd.Flags().GetString("default")

			q := tier.SortQuery{
				Field:     args[1],
				Direction: tier.Descending,
				Cursor:    parseSortValue(cursorRaw),
				Default:   parseSortValue(defaultRaw),
				PageSize:  pageSize,
			}
			if asc {
				q.Direction = tier.Ascending
			}

			page, err := rpcClient.ListBySorted(args[0], q, persistFlag())
			if err != nil {
				return err
			}
			return printPage(page)
		},
	}
	rankCmd = &cobra.Command{
		Use:   "rank [namespace] [key] [field]",
		Short: "Shows the position of an entry ordered by a payload field",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			asc, _ := cmd.Flags().GetBool("asc")
			defaultRaw, _ := cmd.Flags().GetString("default")

			q := tier.RankQuery{
				Field:     args[2],
				Direction: tier.Descending,
				Default:   parseSortValue(defaultRaw),
			}
			if asc {
				q.Direction = tier.Ascending
			}

			rank, err := rpcClient.Rank(args[0], args[1], q, persistFlag())
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, rank=%d\n", args[1], rank)
			return nil
		},
	}
	batchCmd = &cobra.Command{
		Use:   "batch [items]",
		Short: "Applies multiple writes from a JSON array of {namespace, key, payload, ttl_seconds}",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []engine.BatchItem
			if err := json.Unmarshal([]byte(args[0]), &items); err != nil {
				return fmt.Errorf("items must be a JSON array: %w", err)
			}
			buffered, _ := cmd.Flags().GetBool("buffered")

			if err := rpcClient.BatchWrite(items, persistFlag(), buffered); err != nil {
				return err
			}
			fmt.Printf("batch of %d writes applied\n", len(items))
			return nil
		},
	}
)

// parseSortValue interprets a flag value as a number when possible, falling
// back to the raw string. An empty flag means unset.
func parseSortValue(raw string) any {
	if raw == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func init() {
	setCmd.Flags().Int64("ttl", 0, "Time-to-live in seconds (0 = never expires)")
	setCmd.Flags().Bool("buffered", false, "Queue the write in the server's write-behind batcher (durable tier only)")

	listCmd.Flags().Int64("cursor", 0, "Continue after this write cursor")
	listCmd.Flags().Int("page-size", 10, "Number of entries per page")

	sortCmd.Flags().Int("page-size", 10, "Number of entries per page")
	sortCmd.Flags().Bool("asc", false, "Sort ascending instead of descending")
	sortCmd.Flags().String("cursor", "", "Continue after this sort value")
	sortCmd.Flags().String("default", "", "Substitute for entries missing the field")

	rankCmd.Flags().Bool("asc", false, "Rank ascending instead of descending")
	rankCmd.Flags().String("default", "", "Substitute when the entry is missing the field")

	batchCmd.Flags().Bool("buffered", false, "Queue the writes in the server's write-behind batcher (durable tier only)")
}
