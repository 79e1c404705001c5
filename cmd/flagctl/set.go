package main

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/joshuapare/upkflags/editor"
	"github.com/joshuapare/upkflags/editor/prop"
)

var setOutput string

func init() {
	cmd := newSetCmd()
	cmd.Flags().StringVarP(&setOutput, "output", "o", "", "Write the edited package to this file instead of overwriting it")
	rootCmd.AddCommand(cmd)
}

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <package> <object-path> <flag> <true|false>",
		Short: "Set one flag",
		Long: `The set command sets one flag of an object and saves the package.
The flag is named by its full identifier as listed by the flags command.
Use "Package'<name>'" as the object path for package flags.

With --output the package is first copied to the new file and only the
copy is edited.

Example:
  flagctl set Engine.u "Class'Engine.Actor'" Class.ClassFlags.Abstract true
  flagctl set Engine.u "Package'Engine'" Package.PackageFlags.Cooked false -o Out.u`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(args)
		},
	}
	return cmd
}

func runSet(args []string) error {
	path, objectPath, flagName := args[0], args[1], args[2]
	value, err := strconv.ParseBool(args[3])
	if err != nil {
		return errors.Errorf("invalid value %q, expected true or false", args[3])
	}

	e, err := openEngine(path, editor.HeadlessOptions())
	if err != nil {
		return err
	}
	defer e.Close()

	if setOutput != "" {
		moved, err := e.MigrateLoadedPackageToNewFile(setOutput)
		if err != nil {
			if msg := editor.FriendlyFileError(setOutput, "output file", errors.Cause(err)); msg != "" {
				return errors.New(msg)
			}
			return errors.Wrap(err, "copy package")
		}
		if moved {
			printVerbose("Copied package to %s\n", setOutput)
		}
	}

	n, err := e.FindObject(objectPath)
	if err != nil {
		return err
	}
	n.PreInitProperties()
	p := n.Property(flagName)
	if p == nil {
		return errors.Errorf("could not find property %s within %s", flagName, n.ReferencePath())
	}
	b, ok := p.(prop.Bool)
	if !ok {
		return errors.Errorf("property %s within %s isn't a flag", flagName, n.ReferencePath())
	}

	old := b.Get()
	if err := b.SetValue(value); err != nil {
		return err
	}
	if old == b.Get() {
		printInfo("NO CHANGE : %s - %s was already %t.\n", n.ReferencePath(), flagName, value)
		return nil
	}
	if err := e.SaveOverwrite(); err != nil {
		return errors.Wrap(err, "save package")
	}
	printInfo("CHANGE : %s - %s = %t.\n", n.ReferencePath(), flagName, value)
	return nil
}
