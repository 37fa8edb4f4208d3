package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/reachstrap/internal/domain/entities"
	"github.com/ochairo/reachstrap/internal/domain/services"
)

func newSanitizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize [-- arguments]",
		Short: "Print game arguments as they would appear in logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSanitize(a, args)
		},
	}
}

func runSanitize(a *app, args []string) error {
	debug := false
	out := services.SanitizeArguments(args, entities.DefaultSanitizationRule, func() { debug = true })

	if _, err := fmt.Fprintln(a.out, strings.Join(out, " ")); err != nil {
		return err
	}
	if debug {
		_, err := fmt.Fprintln(a.out, "debug logging would be enabled")
		return err
	}
	return nil
}
