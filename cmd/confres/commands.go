package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-confres/flagx"
	"github.com/KOMKZ/go-yogan-confres/members"
	"github.com/KOMKZ/go-yogan-confres/source"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "confres",
		Short:        "Resolve layered configuration",
		SilenceUsage: true,
	}
	root.AddCommand(newSourcesCmd(), newResolveCmd())
	return root
}

func newSourcesCmd() *cobra.Command {
	var flags layerFlags

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the discovered sources in resolution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flagx.ParseFlags(cmd, &flags); err != nil {
				return err
			}
			return runApp(cmd, flags, 0, func(ctx context.Context, app *cliApp) error {
				sources, err := app.provider.Sources(ctx)
				if err != nil {
					return err
				}
				for _, id := range sources {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}

	cobra.CheckErr(flagx.BindFlags(cmd, &flags))
	return cmd
}

type resolveFlags struct {
	Members []string `flag:"member,m" usage:"member to resolve, name:type[:required]" required:"true"`
	Workers int      `flag:"workers,w" usage:"validation workers per source" default:"1"`
}

// resolveOutput JSON document printed by resolve
type resolveOutput struct {
	Sources    []source.SourceID           `json:"sources"`
	Properties map[string]resolvedProperty `json:"properties"`
}

type resolvedProperty struct {
	Member string `json:"member"`
	Value  any    `json:"value"`
	Source string `json:"source"`
}

func newResolveCmd() *cobra.Command {
	var (
		flags layerFlags
		rf    resolveFlags
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the declared members and print them as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flagx.ParseFlags(cmd, &flags); err != nil {
				return err
			}
			if err := flagx.ParseFlags(cmd, &rf); err != nil {
				return err
			}

			eligible, err := members.ParseMemberSet(rf.Members...)
			if err != nil {
				return err
			}

			return runApp(cmd, flags, rf.Workers, func(ctx context.Context, app *cliApp) error {
				res, err := app.provider.Resolve(ctx, eligible)
				if err != nil {
					return err
				}

				out := resolveOutput{
					Sources:    res.Sources,
					Properties: make(map[string]resolvedProperty, res.Properties.Len()),
				}
				for _, key := range res.Properties.Keys() {
					v, _ := res.Properties.Get(key)
					member, _ := eligible.Lookup(key)
					out.Properties[key] = resolvedProperty{
						Member: member.Name,
						Value:  printable(v.Coerced),
						Source: v.Source,
					}
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			})
		},
	}

	cobra.CheckErr(flagx.BindFlags(cmd, &flags))
	cobra.CheckErr(flagx.BindFlags(cmd, &rf))
	return cmd
}

// printable renders durations the way they are written in configuration
func printable(v any) any {
	if d, ok := v.(time.Duration); ok {
		return d.String()
	}
	return v
}
