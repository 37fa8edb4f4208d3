package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/reachstrap/internal/domain-adapters/gateways"
	"github.com/ochairo/reachstrap/internal/domain/entities"
	gw "github.com/ochairo/reachstrap/internal/domain/interfaces/gateways"
)

func newLaunchCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "launch [flags] [-- game arguments]",
		Short: "Patch and start the game",
		Long: `Locate the game jar, resolve its version, install the render hook and
start the game. Arguments after -- are forwarded to the game; --gameDir is
added when absent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd, a, args, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the java command line instead of starting the game")
	return cmd
}

func runLaunch(cmd *cobra.Command, a *app, args []string, dryRun bool) error {
	p, err := a.loadProfile(cmd)
	if err != nil {
		return err
	}

	jvm := gateways.NewJVMInvoker(gateways.JVMInvokerConfig{
		Java:    p.Java,
		JVMArgs: p.JVMArgs,
	}, a.logger)

	var invoker gw.EntryPointInvoker = jvm
	if dryRun {
		invoker = &printingInvoker{app: a, java: p.Java, jvm: jvm}
	}

	return a.newCoordinator(p, invoker).Run(cmd.Context(), args)
}

// printingInvoker writes the command line the JVM invoker would run
type printingInvoker struct {
	app  *app
	java string
	jvm  *gateways.JVMInvoker
}

func (d *printingInvoker) Invoke(_ context.Context, entry entities.EntryPoint, classpath, args []string) error {
	line := append([]string{d.java}, d.jvm.CommandLine(entry, classpath, args)...)
	_, err := fmt.Fprintln(d.app.out, strings.Join(line, " "))
	return err
}
