package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/docsorter/backend/internal/archive"
	"github.com/docsorter/backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	manifestPath string
	archiveOut   string
	archiveStore bool
	projectsKey  string
)

func init() {
	archiveCmd.Flags().StringVar(&manifestPath, "manifest", "", "batch manifest (YAML)")
	archiveCmd.Flags().StringVar(&archiveOut, "out", "", "output zip (default: projekt_<code>_<timestamp>.zip)")
	archiveCmd.Flags().BoolVar(&archiveStore, "store", false, "also keep the archive in the configured archive store")
	archiveCmd.MarkFlagRequired("manifest")

	uploadCmd.Flags().StringVar(&manifestPath, "manifest", "", "batch manifest (YAML)")
	uploadCmd.MarkFlagRequired("manifest")

	projectsCmd.Flags().StringVar(&projectsKey, "api-key", "", "API key (default: the configured one)")

	rootCmd.AddCommand(archiveCmd, uploadCmd, projectsCmd)
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Build a zip archive from a manifest",
	Long: `
Reads the manifest, renames every complete file and writes a zip that holds
the whole folder taxonomy with each file under its target folder.
Incomplete files are skipped with a warning.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		run, err := a.loadManifestRun(manifestPath)
		if err != nil {
			return err
		}

		data, count, err := run.BuildArchive()
		if err != nil {
			return err
		}

		name := archive.FileName(run.ProjectCode(), time.Now())
		out := archiveOut
		if out == "" {
			out = name
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			return fmt.Errorf("failed to write archive: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d files to %s\n", count, out)

		if !archiveStore {
			return nil
		}
		store, err := a.newStore(cmd.Context())
		if err != nil {
			return err
		}
		info, err := store.Save(cmd.Context(), models.ArchiveInfo{
			Name:        filepath.Base(out),
			ProjectCode: run.ProjectCode(),
			FileCount:   count,
		}, data)
		if err != nil {
			return fmt.Errorf("failed to store archive: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored as %s\n", info.ID)
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload the files of a manifest to the document service",
	Long: `
Reads the manifest and uploads every complete file into the remote folder
matching its target path. Prints the batch result as JSON and fails when
any file failed.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		run, err := a.loadManifestRun(manifestPath)
		if err != nil {
			return err
		}

		result, err := run.Upload(cmd.Context(), func(o models.PerFileOutcome) {
			entry := a.log.WithFields(logrus.Fields{"file": o.FileName, "folder": o.FolderPath})
			if o.Status == models.OutcomeSuccess {
				entry.Info("uploaded")
			}
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if result.FailedCount > 0 {
			return fmt.Errorf("%d of %d files failed", result.FailedCount, result.FailedCount+result.SuccessCount)
		}
		return nil
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List the projects visible to the API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		projects, err := a.newRemote(projectsKey).ListProjects(cmd.Context())
		if err != nil {
			return err
		}
		for _, p := range projects {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ProjectID, p.Label())
		}
		return nil
	},
}
