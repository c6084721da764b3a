package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metorial/script-admin/internal/cli"
	"github.com/metorial/script-admin/internal/discovery"
)

var (
	serverURL  string
	consulAddr string
	outputJSON bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scriptctl",
	Short: "CLI for the Script Administrator",
	Long: `scriptctl is a command-line interface for the Script Administrator API.

It lists, creates, edits, deletes and runs scripts. The server is taken from
--server, or looked up in consul when --consul is set.`,
	SilenceUsage: true,
}

func newClient() (*cli.Client, error) {
	if consulAddr != "" && !rootCmd.PersistentFlags().Changed("server") {
		addr, err := discovery.Discover(consulAddr, discovery.ServiceName)
		if err != nil {
			return nil, fmt.Errorf("discover server: %w", err)
		}
		return cli.NewClient("http://" + addr), nil
	}
	return cli.NewClient(serverURL), nil
}

// render prints data as JSON with --json, otherwise through table.
func render(data map[string]interface{}, table func(map[string]interface{}) error) error {
	if outputJSON {
		return cli.FormatJSON(os.Stdout, data)
	}
	return table(data)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		data, err := client.Health()
		if err != nil {
			return err
		}

		return render(data, func(data map[string]interface{}) error {
			fmt.Printf("Status: %v\n", data["status"])
			fmt.Printf("Database: %v\n", data["database"])
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server and host statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		data, err := client.GetStats()
		if err != nil {
			return err
		}

		return render(data, func(data map[string]interface{}) error {
			return cli.FormatStatsTable(os.Stdout, data)
		})
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List script categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		data, err := client.ListCategories()
		if err != nil {
			return err
		}

		return render(data, func(data map[string]interface{}) error {
			return cli.FormatCategoriesTable(os.Stdout, data)
		})
	},
}

var scriptsCmd = &cobra.Command{
	Use:   "scripts",
	Short: "Manage and run scripts",
}

var listScriptsCmd = &cobra.Command{
	Use:   "list",
	Short: "List scripts",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")

		client, err := newClient()
		if err != nil {
			return err
		}
		data, err := client.ListScripts(category)
		if err != nil {
			return err
		}

		return render(data, func(data map[string]interface{}) error {
			return cli.FormatScriptsTable(os.Stdout, data)
		})
	},
}

var getScriptCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		data, err := client.GetScript(args[0])
		if err != nil {
			return err
		}

		return render(data, func(data map[string]interface{}) error {
			return cli.FormatScriptDetail(os.Stdout, data)
		})
	},
}

func scriptInput(cmd *cobra.Command) cli.ScriptInput {
	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	command, _ := cmd.Flags().GetString("command")
	category, _ := cmd.Flags().GetString("category")
	return cli.ScriptInput{Name: name, Description: description, Command: command, Category: category}
}

var createScriptCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a script",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		data, err := client.CreateScript(scriptInput(cmd))
		if err != nil {
			return err
		}

		return render(data, func(data map[string]interface{}) error {
			return cli.FormatScriptDetail(os.Stdout, data)
		})
	},
}

var updateScriptCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Replace the fields of a script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		data, err := client.UpdateScript(args[0], scriptInput(cmd))
		if err != nil {
			return err
		}

		return render(data, func(data map[string]interface{}) error {
			return cli.FormatScriptDetail(os.Stdout, data)
		})
	},
}

var deleteScriptCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to delete %s without --yes", args[0])
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		data, err := client.DeleteScript(args[0])
		if err != nil {
			return err
		}

		return render(data, func(data map[string]interface{}) error {
			fmt.Println(data["message"])
			return nil
		})
	},
}

var runScriptCmd = &cobra.Command{
	Use:   "run [id]",
	Short: "Run a script and print its output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		detach, _ := cmd.Flags().GetBool("detach")

		client, err := newClient()
		if err != nil {
			return err
		}
		data, err := client.RunScript(args[0], !detach)
		if err != nil {
			return err
		}

		return render(data, func(data map[string]interface{}) error {
			return cli.FormatOutput(os.Stdout, data)
		})
	},
}

var outputCmd = &cobra.Command{
	Use:   "output [id]",
	Short: "Show the latest output of a script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		data, err := client.GetOutput(args[0])
		if err != nil {
			return err
		}

		return render(data, func(data map[string]interface{}) error {
			return cli.FormatOutput(os.Stdout, data)
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List recorded executions of a script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newClient()
		if err != nil {
			return err
		}
		data, err := client.GetExecutions(args[0], limit)
		if err != nil {
			return err
		}

		return render(data, func(data map[string]interface{}) error {
			return cli.FormatExecutionsTable(os.Stdout, data)
		})
	},
}

func init() {
	defaultServerURL := os.Getenv("SCRIPT_ADMIN_URL")
	if defaultServerURL == "" {
		defaultServerURL = "http://localhost:8080"
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServerURL, "Script Administrator server URL")
	rootCmd.PersistentFlags().StringVar(&consulAddr, "consul", os.Getenv("CONSUL_HTTP_ADDR"), "Consul address used to find the server")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "Output in JSON format")

	listScriptsCmd.Flags().StringP("category", "c", "", "Only list scripts in this category")

	for _, cmd := range []*cobra.Command{createScriptCmd, updateScriptCmd} {
		cmd.Flags().StringP("name", "n", "", "Script name")
		cmd.Flags().StringP("description", "d", "", "Script description")
		cmd.Flags().String("command", "", "Shell command to run")
		cmd.Flags().StringP("category", "c", "", "Category id (defaults to the first category)")
		cmd.MarkFlagRequired("name")
		cmd.MarkFlagRequired("command")
	}

	deleteScriptCmd.Flags().BoolP("yes", "y", false, "Confirm the deletion")
	runScriptCmd.Flags().Bool("detach", false, "Return immediately with the running placeholder")
	historyCmd.Flags().IntP("limit", "l", 20, "Number of executions to retrieve (max: 1000)")

	scriptsCmd.AddCommand(listScriptsCmd, getScriptCmd, createScriptCmd, updateScriptCmd,
		deleteScriptCmd, runScriptCmd, outputCmd, historyCmd)

	rootCmd.AddCommand(healthCmd, statsCmd, categoriesCmd, scriptsCmd)
}
