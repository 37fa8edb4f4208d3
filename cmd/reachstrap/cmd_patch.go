package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ochairo/reachstrap/internal/classfile"
	"github.com/ochairo/reachstrap/internal/domain/entities"
	"github.com/ochairo/reachstrap/internal/domain/services"
)

type patchOptions struct {
	in, out   string
	owner     string
	method    string
	desc      string
	hookOwner string
	hookName  string
	hookDesc  string
	at        string
}

func newPatchCmd(a *app) *cobra.Command {
	def := entities.DefaultRenderPatch
	opts := &patchOptions{}

	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Insert a static hook call into a single class file",
		Long: `Patch one class file offline. Defaults reproduce the render hook the
launcher installs into BlockGame at launch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.in, "in", "", "Class file to patch (required)")
	cmd.Flags().StringVar(&opts.out, "out", "", "Output path (required)")
	cmd.Flags().StringVar(&opts.owner, "owner", def.Selector.Owner, "Internal name of the class owning the method")
	cmd.Flags().StringVar(&opts.method, "method", def.Selector.Name, "Method name")
	cmd.Flags().StringVar(&opts.desc, "desc", def.Selector.Descriptor, "Method descriptor")
	cmd.Flags().StringVar(&opts.hookOwner, "hook-owner", def.Call.Owner, "Internal name of the hook class")
	cmd.Flags().StringVar(&opts.hookName, "hook-name", def.Call.Name, "Hook method name")
	cmd.Flags().StringVar(&opts.hookDesc, "hook-desc", def.Call.Descriptor, "Hook method descriptor")
	cmd.Flags().StringVar(&opts.at, "at", def.At.String(), "Insertion point: start, end or call:<n>")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runPatch(a *app, opts *patchOptions) error {
	at, err := entities.ParseInsertionPoint(opts.at)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.in)
	if err != nil {
		return fmt.Errorf("failed to read class file: %w", err)
	}
	cf, err := classfile.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.in, err)
	}

	patch := entities.InstructionPatch{
		Selector: entities.MethodSelector{Owner: opts.owner, Name: opts.method, Descriptor: opts.desc},
		At:       at,
		Call:     entities.InjectedCall{Owner: opts.hookOwner, Name: opts.hookName, Descriptor: opts.hookDesc},
	}

	patched, err := services.NewMethodPatcher(a.logger).Patch(cf, patch.Selector, patch)
	if err != nil {
		return err
	}

	calls, err := services.CountCalls(patched, patch.Selector, patch.Call)
	if err != nil {
		return err
	}

	//nolint:gosec // G306: class files are not secret
	if err := os.WriteFile(opts.out, patched.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.out, err)
	}

	_, err = fmt.Fprintf(a.out, "patched %s at %s: %s.%s now called %d time(s)\n",
		patch.Selector, at, patch.Call.Owner, patch.Call.Name, calls)
	return err
}
