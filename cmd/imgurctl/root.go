package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/imgur-harvester/internal/config"
	"github.com/samvad-hq/imgur-harvester/pkg/imgur"
)

type rootOptions struct {
	clientID string
	baseURL  string
	timeout  time.Duration
	envelope bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "imgurctl",
		Short:         "Look up Imgur images and albums",
		Long:          "One-shot lookups against the Imgur v3 API. Output is indented JSON.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.clientID, "client-id", "", "Imgur client id (default $IMGUR_CLIENT_ID)")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "API root (default $IMGUR_BASE_URL or "+imgur.DefaultBaseURL+")")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Request timeout (default $HTTP_TIMEOUT_SECONDS)")
	cmd.PersistentFlags().BoolVar(&opts.envelope, "envelope", false, "Print the full response envelope instead of the payload")

	cmd.AddCommand(
		newImageCmd(opts),
		newAlbumCmd(opts),
		newAlbumImagesCmd(opts),
	)
	return cmd
}

// client builds an Imgur client from config, with flags taking precedence.
func (o *rootOptions) client() (*imgur.Client, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	clientID := strings.TrimSpace(o.clientID)
	if clientID == "" {
		clientID = cfg.ImgurClientID
	}
	if clientID == "" {
		return nil, fmt.Errorf("client id required: pass --client-id or set IMGUR_CLIENT_ID")
	}

	baseURL := cfg.ImgurBaseURL
	if o.baseURL != "" {
		baseURL = o.baseURL
	}

	httpCfg := cfg.HTTPConfig()
	if o.timeout > 0 {
		httpCfg.Timeout = o.timeout
	}

	return imgur.New(httpCfg, clientID, imgur.WithBaseURL(baseURL))
}
