/*
Copyright © 2021 the PRIMAP authors.
This file is part of PRIMAP.

PRIMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

PRIMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with PRIMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package primaputil holds the command-line interface of PRIMAP.
package primaputil

import (
	"context"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/primap"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to PRIMAP.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages to print:
              one of debug, info, warning, and error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "spec",
			usage: `
              spec is the path to the TOML conversion specification
              describing how the columns and values of the input table
              map to PRIMAP coordinates. It can include environment
              variables and may be a blob storage location.`,
			shorthand:  "s",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{readCmd.PersistentFlags()},
		},
		{
			name: "input",
			usage: `
              input is the path to the input file. For the read commands
              this is a CSV or Excel table; for materialize it is
              the metadata file of an interchange table; for export it is a
              netCDF file; describe accepts either. It can include
              environment variables and may be a URL or blob storage
              location.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{readCmd.PersistentFlags(), materializeCmd.Flags(), exportCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "sheet",
			usage: `
              sheet is the name of the sheet to read from an Excel input
              file. If it is empty, the first sheet is read.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{wideCmd.Flags()},
		},
		{
			name: "output",
			usage: `
              output is the path to the output file. For the read commands
              and export this is the metadata file of an interchange table,
              whose data is written next to it with the extension ".csv";
              for materialize it is a netCDF file. It can include environment
              variables and may be a blob storage location.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{readCmd.PersistentFlags(), materializeCmd.Flags(), exportCmd.Flags()},
		},
		{
			name: "netcdf",
			usage: `
              netcdf, if not empty, is the path where the table that was
              read is additionally saved as a netCDF dataset.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{readCmd.PersistentFlags()},
		},
		{
			name: "time_format",
			usage: `
              time_format is the strftime format used for the time
              columns of exported interchange tables.`,
			defaultVal: "%Y",
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("PRIMAP")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
			Cfg.BindEnv(option.name)
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(readCmd)
	readCmd.AddCommand(wideCmd)
	readCmd.AddCommand(longCmd)
	Root.AddCommand(materializeCmd)
	Root.AddCommand(exportCmd)
	Root.AddCommand(describeCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("primap: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "primap",
	Short: "Read and convert emissions data.",
	Long: `PRIMAP reads emissions time series from tables in many layouts,
translates their coordinates into controlled terminologies, and converts
them into the PRIMAP interchange format and into labeled datasets.
Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'PRIMAP_var' where 'var' is the
name of the variable to be set. Paths are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of PRIMAP.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("PRIMAP v%s\n", primap.Version)
	},
	DisableAutoGenTag: true,
}

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Convert a table into the interchange format.",
	Long: `read converts a table of emissions time series into the interchange
format as described by the conversion specification given by --spec.
Use the subcommands specified below to choose the layout of the input table.`,
	DisableAutoGenTag: true,
}

var wideCmd = &cobra.Command{
	Use:   "wide",
	Short: "Read a wide table.",
	Long: `wide reads a table with one column per time period, from a CSV
file or, if the input file name ends in ".xlsx", from a sheet of an
Excel file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRead(cmd, false)
	},
	DisableAutoGenTag: true,
}

var longCmd = &cobra.Command{
	Use:   "long",
	Short: "Read a long table.",
	Long: `long reads a CSV table with one row per observation, whose time and
value columns are given as "time" and "data" in the coords_cols section of
the conversion specification.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRead(cmd, true)
	},
	DisableAutoGenTag: true,
}

func runRead(cmd *cobra.Command, long bool) error {
	log, err := newLogger(Cfg.GetString("LogLevel"), cmd.OutOrStderr())
	if err != nil {
		return err
	}
	input, err := checkInputFile("input", Cfg.GetString("input"))
	if err != nil {
		return err
	}
	spec, err := checkInputFile("spec", Cfg.GetString("spec"))
	if err != nil {
		return err
	}
	output, err := checkOutputFile(Cfg.GetString("output"))
	if err != nil {
		return err
	}
	ncf := os.ExpandEnv(Cfg.GetString("netcdf"))
	if ncf != "" {
		if ncf, err = checkOutputFile(ncf); err != nil {
			return err
		}
	}
	return Read(context.Background(), long, spec, input, os.ExpandEnv(Cfg.GetString("sheet")), output, ncf, log)
}

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Convert an interchange table into a netCDF dataset.",
	Long: `materialize reads the interchange table whose metadata file is given
by --input, converts it into a labeled dataset with one variable per entity,
and saves the dataset as netCDF to --output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(Cfg.GetString("LogLevel"), cmd.OutOrStderr())
		if err != nil {
			return err
		}
		input, err := checkInputFile("input", Cfg.GetString("input"))
		if err != nil {
			return err
		}
		output, err := checkOutputFile(Cfg.GetString("output"))
		if err != nil {
			return err
		}
		return Materialize(context.Background(), input, output, log)
	},
	DisableAutoGenTag: true,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Convert a netCDF dataset into an interchange table.",
	Long: `export reads the netCDF dataset given by --input and writes it as an
interchange table, with time columns formatted with --time_format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(Cfg.GetString("LogLevel"), cmd.OutOrStderr())
		if err != nil {
			return err
		}
		input, err := checkInputFile("input", Cfg.GetString("input"))
		if err != nil {
			return err
		}
		output, err := checkOutputFile(Cfg.GetString("output"))
		if err != nil {
			return err
		}
		return Export(context.Background(), input, output, Cfg.GetString("time_format"), log)
	},
	DisableAutoGenTag: true,
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Summarize a dataset.",
	Long: `describe prints the dimensions, attributes, and per-entity statistics
of a netCDF dataset or, if the input file name ends in ".yaml" or ".yml",
of an interchange table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(Cfg.GetString("LogLevel"), cmd.OutOrStderr())
		if err != nil {
			return err
		}
		input, err := checkInputFile("input", Cfg.GetString("input"))
		if err != nil {
			return err
		}
		return Describe(context.Background(), input, cmd.OutOrStdout(), log)
	},
	DisableAutoGenTag: true,
}
