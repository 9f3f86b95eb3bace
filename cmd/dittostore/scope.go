package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittostore/pkg/filestore"
	"github.com/marmos91/dittostore/pkg/store/filetree"
)

func scopeEntrypoint(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scope",
		Short: "Manage scopes (the file tree of one node)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create [ownerNodeId]",
		Short: "Create an empty scope owned by a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *filestore.Service) error {
				scope, err := svc.CreateScope(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printScope(cmd.OutOrStdout(), scope)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show [scopeId]",
		Short: "Show a scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *filestore.Service) error {
				scope, err := svc.GetScope(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printScope(cmd.OutOrStdout(), scope)
				return nil
			})
		},
	})

	cmd.AddCommand(copyEntrypoint(a, "fork", "Copy a scope's completed files into a new scope for a forked node",
		(*filestore.Service).AfterFork))
	cmd.AddCommand(copyEntrypoint(a, "register", "Copy a scope's completed files into a new scope for a registration",
		(*filestore.Service).AfterRegister))

	return cmd
}

type copyHook = func(svc *filestore.Service, ctx context.Context, srcScopeID, nodeID, user string) (*filetree.Scope, error)

func copyEntrypoint(a *app, use, short string, hook copyHook) *cobra.Command {
	user := ""

	cmd := &cobra.Command{
		Use:   use + " [srcScopeId] [nodeId]",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *filestore.Service) error {
				scope, err := hook(svc, cmd.Context(), args[0], args[1], user)
				if err != nil {
					return err
				}
				printScope(cmd.OutOrStdout(), scope)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", user, "User performing the operation")

	return cmd
}

func printScope(out io.Writer, scope *filetree.Scope) {
	root := scope.RootID
	if root == "" {
		root = "(none)"
	}
	fmt.Fprintf(out, "scope:   %s\nowner:   %s\nroot:    %s\ncreated: %s\n",
		scope.ID, scope.OwnerNodeID, root, scope.Created.Format(time.RFC3339))
}
