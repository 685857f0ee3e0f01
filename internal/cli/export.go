package cli

import (
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"courier/internal/app"
	"courier/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		out    string
		upload bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the delivered-order ledger to a Parquet file, optionally uploading it to S3",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				cfg := a.Config.Export
				if out == "" {
					name := fmt.Sprintf("ledger-%s-%s.parquet", a.Config.Partner.ID, time.Now().Format("20060102-150405"))
					out = filepath.Join(cfg.Dir, name)
				}
				n, err := export.WriteParquet(out, a.Ledger.All(), time.Local, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d orders to %s\n", n, out)
				if !upload {
					return nil
				}
				if cfg.S3Bucket == "" {
					return fmt.Errorf("export.s3_bucket is required for --upload")
				}
				up, err := export.NewS3Uploader(cmd.Context(), cfg.S3Region, cfg.S3Bucket)
				if err != nil {
					return err
				}
				key := path.Join(cfg.S3Prefix, filepath.Base(out))
				if err := up.Upload(cmd.Context(), out, key); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "uploaded s3://%s/%s\n", cfg.S3Bucket, key)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default export.dir/ledger-<partner>-<time>.parquet)")
	cmd.Flags().BoolVar(&upload, "upload", false, "upload the file to export.s3_bucket")
	return cmd
}
