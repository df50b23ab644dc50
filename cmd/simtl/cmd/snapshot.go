package cmd

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"simtl/internal/capture"
	appLog "simtl/internal/log"
	"simtl/internal/web"
)

type snapshotFlags struct {
	output  string
	width   int
	height  int
	timeout time.Duration
}

func newSnapshotCommand(g *globalFlags) *cobra.Command {
	f := &snapshotFlags{}
	c := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture the rendered widget as PNG",
		Long: `Render the widget, serve it on a loopback port and capture it with a
headless Chromium once the timeline bands are drawn.

Example:
  simtl snapshot -o timeline.png --width 1600`,
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

			// Basic auth would block the browser; the listener is loopback only.
			cfg.BasicAuth = nil
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return err
			}
			server := &http.Server{Handler: web.NewServer(cfg, w).Handler(), ReadHeaderTimeout: 5 * time.Second}
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					appLog.Error("snapshot server error", err)
				}
			}()
			defer server.Close()

			url := "http://" + ln.Addr().String() + "/"
			appLog.Info("capturing snapshot", "url", url, "output", f.output)
			return capture.CapturePNG(ctx, capture.Options{
				URL:         url,
				ContainerID: w.ID(),
				OutputPath:  f.output,
				Width:       f.width,
				Height:      f.height,
				Timeout:     f.timeout,
			})
		},
	}
	c.Flags().StringVarP(&f.output, "output", "o", "timeline.png", "PNG output path")
	c.Flags().IntVar(&f.width, "width", capture.DefaultWidth, "viewport width in pixels")
	c.Flags().IntVar(&f.height, "height", capture.DefaultHeight, "viewport height in pixels")
	c.Flags().DurationVar(&f.timeout, "timeout", capture.DefaultTimeout, "capture timeout")
	return c
}
