/*
 * Copyright 2020 VMware, Inc.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Command dictwalk is a demonstration CLI over pkg/dictwalk: it loads a
// YAML (or JSON) document from a file and runs one of the four path
// operations against it, printing the result as YAML.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pathwalk/dictwalk/pkg/dictwalk"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dictwalk",
		Short: "Evaluate dictwalk path expressions against a YAML/JSON document",
	}
	root.AddCommand(newGetCmd(), newExistsCmd(), newSetCmd(), newUnsetCmd())
	return root
}

func loadDocument(file string) (dictwalk.Value, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return dictwalk.Value{}, fmt.Errorf("read %s: %w", file, err)
	}
	return dictwalk.FromYAML(raw)
}

func printValue(v dictwalk.Value) error {
	out, err := dictwalk.ToYAML(v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func newGetCmd() *cobra.Command {
	var defaultText string
	var strict bool

	cmd := &cobra.Command{
		Use:   "get <file> <path>",
		Short: "Resolve path against file and print the result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadDocument(args[0])
			if err != nil {
				return err
			}

			opts := []dictwalk.GetOption{dictwalk.WithStrict(strict)}
			if cmd.Flags().Changed("default") {
				defaultValue, err := dictwalk.FromYAML([]byte(defaultText))
				if err != nil {
					return fmt.Errorf("parse --default: %w", err)
				}
				opts = append(opts, dictwalk.WithDefault(defaultValue))
			}

			result, err := dictwalk.Get(data, args[1], opts...)
			if err != nil {
				return err
			}
			return printValue(result)
		},
	}
	cmd.Flags().StringVar(&defaultText, "default", "", "YAML/JSON value returned when path does not resolve")
	cmd.Flags().BoolVar(&strict, "strict", false, "raise an error instead of falling back to --default")
	return cmd
}

func newExistsCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "exists <file> <path>",
		Short: "Report whether path resolves against file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			ok, err := dictwalk.Exists(data, args[1], dictwalk.WithStrict(strict))
			if err != nil {
				return err
			}
			fmt.Println(ok)
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "raise an error instead of returning false")
	return cmd
}

func newSetCmd() *cobra.Command {
	var strict bool
	var noCreateMissing bool
	var noCreateFilterMatch bool
	var noOverwriteIncompatible bool

	cmd := &cobra.Command{
		Use:   "set <file> <path> <json-value>",
		Short: "Set path to a YAML/JSON-encoded value and print the whole document",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			newValue, err := dictwalk.FromYAML([]byte(args[2]))
			if err != nil {
				return fmt.Errorf("parse value: %w", err)
			}

			result, err := dictwalk.Set(data, args[1], newValue,
				dictwalk.WithSetStrict(strict),
				dictwalk.WithCreateMissing(!noCreateMissing),
				dictwalk.WithCreateFilterMatch(!noCreateFilterMatch),
				dictwalk.WithOverwriteIncompatible(!noOverwriteIncompatible),
			)
			if err != nil {
				return err
			}
			return printValue(result)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "require every segment up to the target to already resolve")
	cmd.Flags().BoolVar(&noCreateMissing, "no-create-missing", false, "do not create missing intermediate containers")
	cmd.Flags().BoolVar(&noCreateFilterMatch, "no-create-filter-match", false, "do not append a new element when a filter matches nothing")
	cmd.Flags().BoolVar(&noOverwriteIncompatible, "no-overwrite-incompatible", false, "do not replace an incompatible container along the path")
	return cmd
}

func newUnsetCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "unset <file> <path>",
		Short: "Remove whatever path resolves to and print the whole document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			result, err := dictwalk.Unset(data, args[1], dictwalk.WithUnsetStrict(strict))
			if err != nil {
				return err
			}
			return printValue(result)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "require the target to already resolve")
	return cmd
}
