package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrund/topichub/internal/server"
)

var (
	serverAddr   string
	outputFormat string
)

// topicsCmd represents the topics command
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Inspect and drive topics on a running server",
	Long: `The topics command talks to the admin API of a running topichub server.

Examples:
  # List all topics
  topichub topics list

  # Show one topic with its subscribers
  topichub topics get news --format json

  # Register and remove a topic
  topichub topics create news
  topichub topics delete news

  # Send a message to every subscriber of a topic
  topichub topics broadcast news "hello"`,
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered topics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp server.ListResponse
		if err := apiCall(http.MethodGet, "/topics", nil, &resp); err != nil {
			return err
		}
		if outputFormat == "json" {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		if len(resp.Topics) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No topics registered.")
			return nil
		}
		sort.Strings(resp.Topics)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tACTIVE\tSUBSCRIBERS")
		fmt.Fprintln(w, "----\t------\t-----------")
		for _, name := range resp.Topics {
			var topic server.TopicResponse
			if err := apiCall(http.MethodGet, topicPath(name), nil, &topic); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%t\t%d\n", name, topic.Active, len(topic.Subscribers))
		}
		return w.Flush()
	},
}

var topicsGetCmd = &cobra.Command{
	Use:   "get <topic>",
	Short: "Show a topic and its subscribers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp server.TopicResponse
		if err := apiCall(http.MethodGet, topicPath(args[0]), nil, &resp); err != nil {
			return err
		}
		if outputFormat == "json" {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tEXISTS\tACTIVE\tSUBSCRIBERS")
		fmt.Fprintln(w, "----\t------\t------\t-----------")
		fmt.Fprintf(w, "%s\t%t\t%t\t%s\n", resp.Name, resp.Exists, resp.Active, strings.Join(resp.Subscribers, ","))
		return w.Flush()
	},
}

var topicsBroadcastCmd = &cobra.Command{
	Use:   "broadcast <topic> <payload>",
	Short: "Deliver a message to every subscriber of a topic",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := server.BroadcastRequest{Payload: args[1]}
		if err := apiCall(http.MethodPost, topicPath(args[0])+"/broadcast", body, nil); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Broadcast sent to %s\n", args[0])
		return nil
	},
}

var topicsCreateCmd = &cobra.Command{
	Use:   "create <topic>",
	Short: "Register a topic without subscribers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiCall(http.MethodPut, topicPath(args[0]), nil, nil); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Topic %s created\n", args[0])
		return nil
	},
}

var topicsDeleteCmd = &cobra.Command{
	Use:   "delete <topic>",
	Short: "Remove a topic that has no subscribers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiCall(http.MethodDelete, topicPath(args[0]), nil, nil); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Topic %s deleted\n", args[0])
		return nil
	},
}

func topicPath(name string) string {
	return "/topics/" + url.PathEscape(name)
}

// apiCall sends body as JSON and decodes a JSON response into out when out is non-nil.
func apiCall(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, strings.TrimRight(serverAddr, "/")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	topicsCmd.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:8080", "Base URL of the topichub admin API")
	topicsCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "Output format (table, json)")

	topicsCmd.AddCommand(topicsListCmd, topicsGetCmd, topicsCreateCmd, topicsDeleteCmd, topicsBroadcastCmd)
	rootCmd.AddCommand(topicsCmd)
}
