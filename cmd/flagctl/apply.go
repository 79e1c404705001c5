package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/upkflags/editor/headless"
)

func init() {
	rootCmd.AddCommand(newApplyCmd())
}

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <package> <instructions.yaml>",
		Short: "Apply an instruction file",
		Long: `The apply command sets every flag listed in a YAML instruction file
and saves the package once. Nothing is saved when any instruction fails.
The exit status is 0 when there were no errors.

Instruction file:
  printEachChange: true
  objects:
    - path: Class'Engine.Actor'
      mightNotExist: false
      flags:
        - name: Class.ClassFlags.Abstract
          value: true

Example:
  flagctl apply Engine.u edits.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(args)
		},
	}
	return cmd
}

func runApply(args []string) error {
	opts, err := engineOptions()
	if err != nil {
		return err
	}
	res := headless.NewRunner(opts...).Execute(args[0], args[1])
	if jsonOut {
		if err := printJSON(applyJSON(res)); err != nil {
			return err
		}
	} else if !quiet || res.ExitCode != 0 {
		headless.WriteMessages(os.Stdout, res.Messages)
	}
	if res.ExitCode != 0 {
		return &exitError{code: res.ExitCode}
	}
	return nil
}

type applyMessage struct {
	Line int    `json:"line"`
	Type string `json:"type"`
	Text string `json:"text"`
}

type applyResult struct {
	Changes         int            `json:"changes"`
	Errors          int            `json:"errors"`
	Warnings        int            `json:"warnings"`
	ObjectsNotFound int            `json:"objects_not_found"`
	FlagsNotFound   int            `json:"flags_not_found"`
	Saved           bool           `json:"saved"`
	ExitCode        int            `json:"exit_code"`
	Messages        []applyMessage `json:"messages"`
}

func applyJSON(res *headless.Result) applyResult {
	out := applyResult{
		Changes:         res.Changes,
		Errors:          res.Errors,
		Warnings:        res.Warnings,
		ObjectsNotFound: res.ObjectsNotFound,
		FlagsNotFound:   res.FlagsNotFound,
		Saved:           res.Saved,
		ExitCode:        res.ExitCode,
		Messages:        []applyMessage{},
	}
	for _, m := range res.Messages {
		out.Messages = append(out.Messages, applyMessage{Line: m.Line, Type: m.Type.String(), Text: m.Text})
	}
	return out
}
