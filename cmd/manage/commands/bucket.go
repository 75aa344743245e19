package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pageza/foodgram/backend/config"
)

func newSetupBucketCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setup-bucket",
		Short: "Allow public reads of recipe images in the configured S3 bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			s3cfg, err := config.NewS3Config(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to configure s3: %w", err)
			}
			if err := s3cfg.SetupBucketPolicy(cmd.Context()); err != nil {
				return fmt.Errorf("failed to apply bucket policy: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "public read policy applied to %s\n", s3cfg.BucketName)
			return nil
		},
	}
}
