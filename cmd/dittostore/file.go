package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittostore/pkg/filestore"
	"github.com/marmos91/dittostore/pkg/store/filetree"
)

func fileEntrypoint(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Inspect and soft-delete files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stat [scopeId] [path]",
		Short: "Show a file or directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *filestore.Service) error {
				obj, err := svc.FindByPath(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "id:      %s\nkind:    %s\npath:    /%s\n", obj.ID, obj.Kind, obj.Path)
				if obj.IsTree() {
					fmt.Fprintf(out, "entries: %d\n", len(obj.Children))
					return nil
				}

				fmt.Fprintf(out, "versions: %d\ndeleted:  %t\n", len(obj.Versions), obj.IsDeleted)
				latest, err := svc.GetLatestVersion(cmd.Context(), obj.ID, false)
				if err != nil || latest == nil {
					return err
				}
				fmt.Fprintf(out, "latest:   %s (%s)\n", latest.ID, latest.Status)
				return nil
			})
		},
	})

	cmd.AddCommand(deleteEntrypoint(a, "delete", "Soft-delete a file", (*filestore.Service).Delete))
	cmd.AddCommand(deleteEntrypoint(a, "restore", "Restore a soft-deleted file", (*filestore.Service).Undelete))
	cmd.AddCommand(guidEntrypoint(a))

	return cmd
}

type deleteHook = func(svc *filestore.Service, ctx context.Context, recordID, actor string, opts ...filestore.MutationOption) error

func deleteEntrypoint(a *app, use, short string, hook deleteHook) *cobra.Command {
	user := ""
	skipAudit := false

	cmd := &cobra.Command{
		Use:   use + " [recordId]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []filestore.MutationOption
			if skipAudit {
				opts = append(opts, filestore.SkipAudit())
			}

			return a.withService(cmd.Context(), func(svc *filestore.Service) error {
				return hook(svc, cmd.Context(), args[0], user, opts...)
			})
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", user, "User performing the operation")
	cmd.Flags().BoolVar(&skipAudit, "no-audit", skipAudit, "Do not record an audit event")

	return cmd
}

func guidEntrypoint(a *app) *cobra.Command {
	version := 0

	cmd := &cobra.Command{
		Use:   "guid [nodeId] [path]",
		Short: "Show the stable identifier and URLs of a node's file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *filestore.Service) error {
				g, err := svc.GetOrCreateGuidFile(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "guid: %s\nurl:  %s\n", g.ID, g.FileURL())
				if version > 0 {
					fmt.Fprintf(out, "download: %s\n", g.DownloadPath(version))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&version, "version", version, "Also print the download path of this version")

	return cmd
}

func treeEntrypoint(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [scopeId]",
		Short: "Print a scope's file tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *filestore.Service) error {
				out := cmd.OutOrStdout()
				return svc.Walk(cmd.Context(), args[0], func(obj *filetree.Object, depth int) error {
					name := obj.Name()
					switch {
					case depth == 0:
						name = "/"
					case obj.IsTree():
						name += "/"
					case obj.IsDeleted:
						name += " (deleted)"
					}
					fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), name)
					return nil
				})
			})
		},
	}
}

func versionsEntrypoint(a *app) *cobra.Command {
	page := 1
	size := 0

	cmd := &cobra.Command{
		Use:   "versions [recordId]",
		Short: "List a file's versions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *filestore.Service) error {
				result, err := svc.GetVersions(cmd.Context(), args[0], page, size)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for i, v := range result.Versions {
					printVersion(out, result.Indices[i], v)
				}
				if result.More {
					fmt.Fprintf(out, "(more: --page %d)\n", page+1)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", page, "Page number, starting at 1")
	cmd.Flags().IntVarP(&size, "size", "n", size, "Page size (default: versions.page_size)")

	return cmd
}
