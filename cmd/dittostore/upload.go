package main

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/marmos91/dittostore/pkg/filestore"
	"github.com/marmos91/dittostore/pkg/store/filetree"
)

func uploadEntrypoint(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Drive the upload lifecycle of a file",
	}

	cmd.AddCommand(uploadBeginEntrypoint(a))
	cmd.AddCommand(uploadFinishEntrypoint(a))
	cmd.AddCommand(uploadCancelEntrypoint(a))

	return cmd
}

func uploadBeginEntrypoint(a *app) *cobra.Command {
	user := ""
	signature := ""

	cmd := &cobra.Command{
		Use:   "begin [scopeId] [path]",
		Short: "Create the file if needed and open a pending version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if signature == "" {
				signature = uuid.NewString()
			}

			return a.withService(cmd.Context(), func(svc *filestore.Service) error {
				rec, err := svc.GetOrCreate(cmd.Context(), args[0], args[1], filetree.KindRecord)
				if err != nil {
					return err
				}

				v, err := svc.CreatePendingVersion(cmd.Context(), rec.ID, user, signature)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "record:    %s\nversion:   %s\nsignature: %s\n",
					rec.ID, v.ID, v.Signature)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", user, "Creator of the version")
	cmd.Flags().StringVarP(&signature, "signature", "s", signature, "Upload signature (default: random)")

	return cmd
}

func uploadFinishEntrypoint(a *app) *cobra.Command {
	location := map[string]string{}
	metadata := map[string]string{}
	skipAudit := false

	cmd := &cobra.Command{
		Use:   "finish [recordId] [signature]",
		Short: "Complete a pending version with its storage location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta := make(map[string]any, len(metadata))
			for k, v := range metadata {
				meta[k] = v
			}

			var opts []filestore.MutationOption
			if skipAudit {
				opts = append(opts, filestore.SkipAudit())
			}

			return a.withService(cmd.Context(), func(svc *filestore.Service) error {
				v, err := svc.ResolvePendingVersion(cmd.Context(), args[0], args[1], location, meta, opts...)
				if err != nil {
					return err
				}
				printVersion(cmd.OutOrStdout(), 0, v)
				return nil
			})
		},
	}

	cmd.Flags().StringToStringVarP(&location, "location", "l", location, "Storage location, e.g. service=s3,container=bucket,object=key")
	cmd.Flags().StringToStringVarP(&metadata, "meta", "m", metadata, "Upload metadata, e.g. size=1024,content_type=text/plain")
	cmd.Flags().BoolVar(&skipAudit, "no-audit", skipAudit, "Do not record an audit event")

	return cmd
}

func uploadCancelEntrypoint(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [recordId] [signature]",
		Short: "Mark a pending version as failed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *filestore.Service) error {
				v, err := svc.CancelPendingVersion(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				printVersion(cmd.OutOrStdout(), 0, v)
				return nil
			})
		},
	}
}

// printVersion prints one version; index 0 omits the position column.
func printVersion(out io.Writer, index int, v *filetree.FileVersion) {
	if index > 0 {
		fmt.Fprintf(out, "%4d  ", index)
	}
	fmt.Fprintf(out, "%s  %-8s  %-12s  %10d  %s  %s\n",
		v.ID, v.Status, v.Creator, v.Size, v.Created.Format(time.RFC3339), v.LocationHash())
}
