package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pricofy/catalog-translator/internal/handler"
	"github.com/pricofy/catalog-translator/internal/pipeline"
)

// errFailed signals a run that produced a failure result. The result itself
// has already been printed.
var errFailed = errors.New("translation failed")

type serviceBuilder func(ctx context.Context, configPath string) (context.Context, handler.Service, error)

func newRootCmd(build serviceBuilder) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "translator",
		Short:         "Translate catalog datasets and product records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (overrides CONFIG_PATH env)")

	withService := func(cmd *cobra.Command, run func(ctx context.Context, svc handler.Service) (any, bool)) error {
		ctx, svc, err := build(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		result, ok := run(ctx, svc)
		if err := printJSON(cmd, result); err != nil {
			return err
		}
		if !ok {
			return errFailed
		}
		return nil
	}

	var raw, noSave bool
	datasetCmd := &cobra.Command{
		Use:   "dataset [url]",
		Short: "Fetch a dataset and translate titles and HTML content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc handler.Service) (any, bool) {
				res := svc.TranslateDataset(ctx, args[0], pipeline.DatasetOptions{
					Translate: !raw,
					Persist:   !noSave,
				})
				return res, res.Success
			})
		},
	}
	datasetCmd.Flags().BoolVar(&raw, "raw", false, "return the dataset untranslated")
	datasetCmd.Flags().BoolVar(&noSave, "no-save", false, "do not write the result to the output directory")

	productsCmd := &cobra.Command{
		Use:   "products [sku...]",
		Short: "Translate the localized name and description of products",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc handler.Service) (any, bool) {
				res := svc.TranslateProducts(ctx, args)
				return res, res.Success
			})
		},
	}

	root.AddCommand(datasetCmd, productsCmd)
	return root
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
