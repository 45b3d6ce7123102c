package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/memoria/internal/api"
	"github.com/sandeepkv93/memoria/internal/client"
	"github.com/sandeepkv93/memoria/internal/config"
	"github.com/sandeepkv93/memoria/internal/notify"
	"github.com/sandeepkv93/memoria/internal/storage"
	"github.com/sandeepkv93/memoria/internal/tui"
)

var configPath string

func main() {
	home, _ := os.UserHomeDir()
	defaultConfig := filepath.Join(home, ".memoria", config.DefaultConfigFileName)

	rootCmd := &cobra.Command{
		Use:   "memoria",
		Short: "Personal capture server: free text in, memories and reminders out",
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "config file path")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(captureCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(memoriesCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(tuiCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return config.Config{}, fmt.Errorf("create config dir: %w", err)
	}
	return config.LoadOrCreate(configPath)
}

func apiClient() (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return client.New(cfg.ServerURL, cfg.AuthToken), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the capture server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			dbPath := cfg.DBPath
			if !filepath.IsAbs(dbPath) {
				dbPath = filepath.Join(filepath.Dir(configPath), dbPath)
			}
			repo, err := storage.OpenSQLite(dbPath)
			if err != nil {
				return err
			}
			if err := storage.MigrateUp(repo.DB()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			watcher := notify.NewWatcher(repo, notify.NewNtfyClient(cfg.Ntfy.Server, cfg.Ntfy.Topic), 0)
			watcher.Start()
			defer watcher.Stop()

			return api.New(repo, cfg).Run()
		},
	}
}

func captureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capture [text]",
		Short: "Send text to the server and let it decide memory vs task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient()
			if err != nil {
				return err
			}
			resp, err := c.Capture(context.Background(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if resp.Due != nil {
				fmt.Printf("%s: %s (due %s)\n", resp.Kind, resp.Text, *resp.Due)
				return nil
			}
			fmt.Printf("%s: %s\n", resp.Kind, resp.Text)
			return nil
		},
	}
}

func tasksCmd() *cobra.Command {
	var openOnly bool

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks, with recurring tasks expanded",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient()
			if err != nil {
				return err
			}
			tasks, err := c.ListTasks(context.Background(), openOnly)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Println("No tasks.")
				return nil
			}
			for _, t := range tasks {
				mark := " "
				if t.Done {
					mark = "x"
				}
				line := fmt.Sprintf("[%s] %-14s %s", mark, t.ID, t.Title)
				if t.Due != nil {
					line += "  (due " + *t.Due + ")"
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&openOnly, "open", false, "only open tasks")
	return cmd
}

func memoriesCmd() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "memories",
		Short: "List memories",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient()
			if err != nil {
				return err
			}
			page, err := c.ListMemories(context.Background(), search)
			if err != nil {
				return err
			}
			if len(page.Items) == 0 {
				fmt.Println("No memories.")
				return nil
			}
			for _, m := range page.Items {
				fmt.Printf("%-6d %s\n", m.ID, m.Text)
			}
			fmt.Printf("(%d of %d)\n", len(page.Items), page.Total)
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "query", "q", "", "search text and tags")
	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export all memories and tasks as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient()
			if err != nil {
				return err
			}
			data, err := c.Export(context.Background())
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return os.WriteFile(args[0], out, 0o644)
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import memories and tasks from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var data api.ExportData
			if err := json.Unmarshal(raw, &data); err != nil {
				return fmt.Errorf("parse export file: %w", err)
			}

			c, err := apiClient()
			if err != nil {
				return err
			}
			counts, err := c.Import(context.Background(), data, overwrite)
			if err != nil {
				return err
			}
			for kind, result := range counts {
				fmt.Printf("%s: inserted=%d updated=%d skipped=%d failed=%d\n",
					kind, result["inserted"], result["updated"], result["skipped"], result["failed"])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite existing records with matching ids")
	return cmd
}

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive capture client",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient()
			if err != nil {
				return err
			}
			return tui.Run(c)
		},
	}
}
