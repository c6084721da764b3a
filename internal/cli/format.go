package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"
)

func FormatJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func FormatScriptsTable(out io.Writer, data map[string]interface{}) error {
	scripts, ok := data["scripts"].([]interface{})
	if !ok {
		return fmt.Errorf("invalid scripts data")
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tCOMMAND")

	for _, s := range scripts {
		script, ok := s.(map[string]interface{})
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			getString(script["id"]),
			getString(script["name"]),
			getString(script["category"]),
			truncate(getString(script["command"]), 60),
		)
	}

	return w.Flush()
}

func FormatScriptDetail(out io.Writer, script map[string]interface{}) error {
	fmt.Fprintf(out, "ID: %s\n", getString(script["id"]))
	fmt.Fprintf(out, "Name: %s\n", getString(script["name"]))
	fmt.Fprintf(out, "Category: %s\n", getString(script["category"]))
	if desc := getString(script["description"]); desc != "" {
		fmt.Fprintf(out, "Description: %s\n", desc)
	}
	fmt.Fprintf(out, "Command: %s\n", getString(script["command"]))
	return nil
}

func FormatCategoriesTable(out io.Writer, data map[string]interface{}) error {
	categories, ok := data["categories"].([]interface{})
	if !ok {
		return fmt.Errorf("invalid categories data")
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, c := range categories {
		cat, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", getString(cat["id"]), getString(cat["name"]))
	}

	return w.Flush()
}

// FormatOutput prints a run result the way the output panel shows it.
func FormatOutput(out io.Writer, data map[string]interface{}) error {
	output, ok := data["output"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid output data")
	}

	fmt.Fprintf(out, "Script: %s\n", getString(data["script_id"]))
	fmt.Fprintf(out, "Status: %s\n", formatStatus(output))
	fmt.Fprintf(out, "Start: %s\n", formatTime(output["start_time"]))
	fmt.Fprintf(out, "End: %s\n", formatTime(output["end_time"]))

	if stdout := getString(output["stdout"]); stdout != "" {
		fmt.Fprintf(out, "\nSTDOUT:\n%s\n", stdout)
	}
	if stderr := getString(output["stderr"]); stderr != "" {
		fmt.Fprintf(out, "\nSTDERR:\n%s\n", stderr)
	}
	return nil
}

func FormatExecutionsTable(out io.Writer, data map[string]interface{}) error {
	executions, _ := data["executions"].([]interface{})
	if len(executions) == 0 {
		fmt.Fprintln(out, "No executions recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEXIT CODE\tSTARTED\tFINISHED\tSHA256")
	for _, e := range executions {
		exec, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			formatNumber(exec["id"]),
			formatNumber(exec["exit_code"]),
			formatTime(exec["started_at"]),
			formatTime(exec["finished_at"]),
			truncate(getString(exec["sha256_hash"]), 12),
		)
	}

	return w.Flush()
}

func FormatStatsTable(out io.Writer, data map[string]interface{}) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Scripts:\t%s\n", formatNumber(data["scripts"]))
	fmt.Fprintf(w, "Categories:\t%s\n", formatNumber(data["categories"]))
	fmt.Fprintf(w, "Running:\t%t\n", data["running"] == true)

	if host, ok := data["host"].(map[string]interface{}); ok {
		fmt.Fprintf(w, "Hostname:\t%s\n", getString(host["hostname"]))
		fmt.Fprintf(w, "Platform:\t%s\n", getString(host["platform"]))
		fmt.Fprintf(w, "Uptime:\t%s\n", formatUptime(host["uptime_seconds"]))
		fmt.Fprintf(w, "CPU Cores:\t%s\n", formatNumber(host["cpu_cores"]))
		fmt.Fprintf(w, "Memory:\t%s / %s\n", formatBytes(host["used_memory_bytes"]), formatBytes(host["total_memory_bytes"]))
	}

	return w.Flush()
}

func formatStatus(output map[string]interface{}) string {
	if output["is_running"] == true {
		return "Running..."
	}
	code, ok := output["exit_code"].(float64)
	if !ok {
		return "Error (Code: unknown)"
	}
	if code == 0 {
		return "Success"
	}
	return fmt.Sprintf("Error (Code: %d)", int64(code))
}

func getString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func formatNumber(v interface{}) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	default:
		return "0"
	}
}

func formatBytes(v interface{}) string {
	var bytes float64
	switch n := v.(type) {
	case float64:
		bytes = n
	case int64:
		bytes = float64(n)
	case int:
		bytes = float64(n)
	default:
		return "0 B"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	i := 0
	for bytes >= 1024 && i < len(units)-1 {
		bytes /= 1024
		i++
	}

	return fmt.Sprintf("%.1f %s", bytes, units[i])
}

func formatTime(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return "N/A"
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatUptime(v interface{}) string {
	var seconds int64
	switch n := v.(type) {
	case float64:
		seconds = int64(n)
	case int64:
		seconds = n
	case int:
		seconds = int64(n)
	default:
		return "0s"
	}

	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
