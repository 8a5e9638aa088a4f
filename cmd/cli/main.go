package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "ytdlp-api",
		Short: "CLI for the yt-dlp download API server",
		Long:  `A command-line interface for submitting downloads, watching progress and managing the ytdlp-api server.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serverCmd)
}

// ensureServer checks if the server is running and starts it if needed
// (unless --no-auto-start).
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func getJSON(path string, out interface{}) {
	resp, err := http.Get(serverURL + path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
		os.Exit(1)
	}
	json.Unmarshal(body, out)
}

var formatsCmd = &cobra.Command{
	Use:   "formats [url]",
	Short: "List available formats for a URL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var info struct {
			Title   string `json:"title"`
			Formats []struct {
				FormatID   string `json:"format_id"`
				Ext        string `json:"ext"`
				Resolution string `json:"resolution"`
				VCodec     string `json:"vcodec"`
				ACodec     string `json:"acodec"`
			} `json:"formats"`
		}
		getJSON("/formats?url="+url.QueryEscape(args[0]), &info)

		fmt.Printf("Title: %s\n\n", info.Title)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FORMAT\tEXT\tRESOLUTION\tVCODEC\tACODEC")
		for _, f := range info.Formats {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.FormatID, f.Ext, f.Resolution, f.VCodec, f.ACodec)
		}
		w.Flush()
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Start a download",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		formatID, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		extractAudio, _ := cmd.Flags().GetBool("extract-audio")
		audioFormat, _ := cmd.Flags().GetString("audio-format")

		payload := map[string]interface{}{
			"url":       args[0],
			"format_id": formatID,
		}
		if output != "" {
			payload["output_template"] = output
		}
		if extractAudio {
			payload["extract_audio"] = true
		}
		if audioFormat != "" {
			payload["audio_format"] = audioFormat
		}

		data, _ := json.Marshal(payload)
		resp, err := http.Post(serverURL+"/download", "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusAccepted {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result map[string]interface{}
		json.Unmarshal(body, &result)
		fmt.Println("Download started!")
		fmt.Printf("Key: %s\n", result["download_key"])
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of all downloads",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var jobs map[string]struct {
			Status   string  `json:"status"`
			Progress float64 `json:"progress"`
			Speed    string  `json:"speed"`
			ETA      string  `json:"eta"`
			Error    string  `json:"error"`
		}
		getJSON("/status", &jobs)

		if len(jobs) == 0 {
			fmt.Println("No downloads this session")
			return
		}

		keys := make([]string, 0, len(jobs))
		for key := range jobs {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "URL\tSTATUS\tPROGRESS\tSPEED\tETA\tERROR")
		for _, key := range keys {
			j := jobs[key]
			fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%s\t%s\t%s\n",
				truncate(key, 50), j.Status, j.Progress, j.Speed, j.ETA, truncate(j.Error, 40))
		}
		w.Flush()
	},
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List downloaded files",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var result struct {
			Files []string `json:"files"`
		}
		getJSON("/files", &result)

		if len(result.Files) == 0 {
			fmt.Println("No files downloaded yet")
			return
		}
		for _, f := range result.Files {
			fmt.Println(f)
		}
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show finished downloads",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		limit, _ := cmd.Flags().GetInt("limit")

		var result struct {
			Records []struct {
				URL      string  `json:"url"`
				Status   string  `json:"status"`
				Progress float64 `json:"progress"`
				EndedAt  string  `json:"ended_at"`
				Error    string  `json:"error"`
			} `json:"records"`
			Stats struct {
				Total     int64 `json:"total"`
				Completed int64 `json:"completed"`
				Failed    int64 `json:"failed"`
			} `json:"stats"`
		}
		getJSON(fmt.Sprintf("/history?limit=%d", limit), &result)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "URL\tSTATUS\tFINISHED\tERROR")
		for _, r := range result.Records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				truncate(r.URL, 50), r.Status, r.EndedAt, truncate(r.Error, 40))
		}
		w.Flush()

		fmt.Printf("\nTotal: %d  Completed: %d  Failed: %d\n",
			result.Stats.Total, result.Stats.Completed, result.Stats.Failed)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the server configuration",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var config map[string]interface{}
		getJSON("/config", &config)

		pretty, _ := json.MarshalIndent(config, "", "  ")
		fmt.Println(string(pretty))
	},
}

func init() {
	downloadCmd.Flags().StringP("format", "f", "best", "Format selector (e.g. 137+140)")
	downloadCmd.Flags().StringP("output", "o", "", "Output template")
	downloadCmd.Flags().Bool("extract-audio", false, "Extract audio after download")
	downloadCmd.Flags().String("audio-format", "", "Audio format for extraction (e.g. mp3)")
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of records")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
