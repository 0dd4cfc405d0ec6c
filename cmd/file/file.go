// Package file implements the one-shot analysis subcommand: run the
// moderation pipeline on a local image and print the decision without
// touching the database.
package file

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pkallio/photoguard-go/internal/conf"
	"github.com/pkallio/photoguard-go/internal/moderation"
)

// Command creates the file analysis command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file [image]",
		Short: "Analyze a single image file and print the moderation decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeFileAnalysis(cmd, settings, args[0])
		},
	}
	return cmd
}

func executeFileAnalysis(cmd *cobra.Command, settings *conf.Settings, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	orchestrator, err := moderation.New(settings, nil)
	if err != nil {
		return err
	}

	decision := orchestrator.Analyze(cmd.Context(), moderation.ImageInput{
		Data:      data,
		MimeType:  detectMimeType(path, data),
		SizeBytes: int64(len(data)),
		Filename:  filepath.Base(path),
	})

	out, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding decision: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// detectMimeType prefers the file extension and falls back to content
// sniffing.
func detectMimeType(path string, data []byte) string {
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		return byExt
	}
	return http.DetectContentType(data)
}
