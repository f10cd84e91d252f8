package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/imgur-harvester/pkg/imgur"
)

func newImageCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "image <id>",
		Short:   "Show an image",
		Example: "  imgurctl image 8kY4Jq1",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return lookup(cmd, opts, func(ctx context.Context, c *imgur.Client) (any, any, error) {
				env, err := c.Image(ctx, args[0])
				return resolve(env, err)
			})
		},
	}
}

func newAlbumCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "album <id>",
		Short:   "Show an album",
		Example: "  imgurctl album cXz3n",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return lookup(cmd, opts, func(ctx context.Context, c *imgur.Client) (any, any, error) {
				env, err := c.Album(ctx, args[0])
				return resolve(env, err)
			})
		},
	}
}

func newAlbumImagesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "album-images <id>",
		Short:   "List the images of an album",
		Example: "  imgurctl album-images cXz3n",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return lookup(cmd, opts, func(ctx context.Context, c *imgur.Client) (any, any, error) {
				env, err := c.AlbumImages(ctx, args[0])
				return resolve(env, err)
			})
		},
	}
}

type call func(ctx context.Context, c *imgur.Client) (payload, envelope any, err error)

// resolve returns the payload and the raw envelope. An API error is
// returned alongside the envelope so --envelope can still print it.
func resolve[T any](env *imgur.Envelope[T], err error) (any, any, error) {
	if err != nil {
		return nil, nil, err
	}
	payload, err := env.Result()
	return payload, env, err
}

func lookup(cmd *cobra.Command, opts *rootOptions, fn call) error {
	c, err := opts.client()
	if err != nil {
		return err
	}

	payload, env, err := fn(cmd.Context(), c)
	if opts.envelope && env != nil {
		if werr := writeJSON(cmd.OutOrStdout(), env); werr != nil {
			return werr
		}
		return err
	}
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), payload)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
