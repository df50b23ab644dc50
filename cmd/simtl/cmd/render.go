package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	appLog "simtl/internal/log"
	"simtl/internal/web"
)

type renderFlags struct {
	output     string
	scriptOnly bool
	title      string
}

func newRenderCommand(g *globalFlags) *cobra.Command {
	f := &renderFlags{}
	c := &cobra.Command{
		Use:   "render",
		Short: "Render the widget once",
		Long: `Render the widget once from the configured source and write a standalone
HTML page, or only the timeline script with --script-only.

Examples:
  # Page to stdout
  simtl render --config simtl.yaml

  # Script to a file
  simtl render --script-only -o timeline.js`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			w, cleanup, err := newWidget(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := w.Render(ctx)
			if err != nil {
				return err
			}
			if out.Skipped > 0 {
				appLog.Warn("records skipped", "count", out.Skipped)
			}

			var dst io.Writer = cmd.OutOrStdout()
			if f.output != "" && f.output != "-" {
				file, err := os.Create(f.output)
				if err != nil {
					return err
				}
				defer file.Close()
				dst = file
			}

			if f.scriptOnly {
				_, err = io.WriteString(dst, out.Script+"\n")
			} else {
				err = web.WritePage(dst, out, web.Page{Title: f.title})
			}
			if err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			appLog.Info("widget rendered", "id", out.ID, "events", out.Events)
			return nil
		},
	}
	c.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	c.Flags().BoolVar(&f.scriptOnly, "script-only", false, "write only the timeline script")
	c.Flags().StringVar(&f.title, "title", "", "page title")
	return c
}
