package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/progreso-dashboard/internal/importer"
	"github.com/noah-isme/progreso-dashboard/internal/models"
	"github.com/noah-isme/progreso-dashboard/pkg/apiclient"
	appErrors "github.com/noah-isme/progreso-dashboard/pkg/errors"
)

type uploadOptions struct {
	token   string
	apiURL  string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "importer",
		Short:         "Validate and upload competency progress workbooks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newValidateCmd(), newTemplateCmd(), newUploadCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file.xlsx]",
		Short: "Check a workbook without uploading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := checkWorkbook(cmd.OutOrStdout(), args[0])
			return err
		},
	}
}

func newTemplateCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the import template workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := importer.Template()
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, payload, 0o644); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plantilla guardada en %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", importer.TemplateFileName, "Destination file")
	return cmd
}

func newUploadCmd() *cobra.Command {
	var opts uploadOptions
	cmd := &cobra.Command{
		Use:   "upload [file.xlsx]",
		Short: "Validate a workbook and send it to the progress API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			data, err := checkWorkbook(out, args[0])
			if err != nil {
				return err
			}
			client := apiclient.New(apiclient.Config{BaseURL: opts.apiURL, Timeout: opts.timeout})
			result, err := client.UploadData(cmd.Context(), opts.token, *data)
			if err != nil {
				return fmt.Errorf("%s", appErrors.UserMessage(err, "Error en la carga"))
			}
			fmt.Fprintln(out, importer.SummaryMessage(result.Summary))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.token, "token", "", "Bearer token for the progress API (required)")
	cmd.Flags().StringVar(&opts.apiURL, "api", envOr("UPSTREAM_API_URL", "http://localhost:3000"), "Progress API base URL")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

// checkWorkbook runs the same pipeline as an import session and prints the
// outcome. It returns errInvalid when the validator reports problems.
func checkWorkbook(out io.Writer, path string) (*models.NormalizedData, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	name := filepath.Base(path)
	if err := importer.CheckFile(name, info.Size(), importer.DefaultMaxFileSize, importer.DefaultExtensions); err != nil {
		return nil, fmt.Errorf("%s", appErrors.UserMessage(err, appErrors.ErrReadFile.Message))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	sheet, err := importer.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("%s", appErrors.UserMessage(err, appErrors.ErrReadFile.Message))
	}

	data := importer.Normalize(sheet.Rows)
	errs := importer.Validate(&data, sheet.Headers, sheet.Rows)

	fmt.Fprintf(out, "%s (%s): %d filas\n", name, importer.FormatFileSize(info.Size()), len(sheet.Rows))
	fmt.Fprintf(out, "  docentes: %d\n  materias: %d\n  elementos: %d\n  saberes: %d\n",
		len(data.Teachers), len(data.Subjects), len(data.Elements), importer.KnowledgeItemTotal(data))

	if importer.StatusFor(errs) == models.ValidationInvalid {
		fmt.Fprintf(out, "Errores de validación (%d):\n", len(errs))
		for _, e := range errs {
			fmt.Fprintf(out, "  - %s\n", e)
		}
		return nil, errInvalid
	}
	fmt.Fprintln(out, "Datos válidos")
	return &data, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
