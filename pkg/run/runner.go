/*
   hfsctl - tools for working with Macintosh HFS volumes
   Copyright (c) 2022, The hfsctl Authors

   This file is part of hfsctl.

   hfsctl is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   hfsctl is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with hfsctl. If not, see <http://www.gnu.org/licenses/>.
*/

package run

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hfsctl/hfsctl/pkg/catalog"
	"github.com/hfsctl/hfsctl/pkg/session"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

// EnvPrefix is prepended to setting names to form environment variables.
const EnvPrefix = "HFSCTL"

// ConfigFileName is the name of the optional config file in the user's home
// directory.
const ConfigFileName = ".hfsctl.yaml"

const runnerHelpEpilogue = `- Settings can also be made via environment variables, by prefixing the
  setting name with HFSCTL_, turning it to all upper case, and replacing
  dashes with underscores, e.g. HFSCTL_LOG_LEVEL=debug. A config file in
  YAML format can provide the same settings, by default ~/.hfsctl.yaml.

- HFS paths use colons as separators. A path starting with a colon, or
  without any colon, is relative to the current HFS directory. Otherwise,
  the part before the first colon is the volume name.
`

// ErrReported is returned by commands whose diagnostics have already been
// printed.
var ErrReported = errors.New("command failed")

// Runner is the base of all commands. It binds command settings to flags,
// environment variables and config file, and provides the session lifecycle.
type Runner struct {
	cobra.Command
	//
	State    string
	LogLevel string
	Config   string
	// volume engine and host file system, replaceable for testing
	Engine volume.Engine
	Fs     afero.Fs
	//
	viper    *viper.Viper
	settings []*setting
}

//
type setting struct {
	ref  interface{}
	name string
}

//
func NewRunner(use, short, long, example, epilog string,
	exec func(args []string) error) *Runner {

	if epilog != "" {
		long = fmt.Sprintf("%s\n\nNotes:\n\n%s", long, epilog)
	}

	ret := &Runner{
		Engine: catalog.NewImageEngine(),
		Fs:     afero.NewOsFs(),
		viper:  viper.New(),
	}

	ret.Command = cobra.Command{
		Use:           use,
		Short:         short,
		Long:          long,
		Example:       example,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := exec(args)
			if err != nil && !errors.Is(err, ErrReported) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", cmd.Name(), err)
				err = ErrReported
			}
			return err
		},
	}

	return ret
}

// AddBaseSettings adds the settings common to all commands.
func (r *Runner) AddBaseSettings() {

	state := session.StateFileName
	config := ""
	if p, err := session.DefaultPath(); err == nil {
		state = p
		config = filepath.Join(filepath.Dir(p), ConfigFileName)
	}

	r.AddSetting(&r.State, "state", "", "", state,
		"file keeping track of mounted volumes and current directories", false)
	r.AddSetting(&r.LogLevel, "log-level", "", "", "warn",
		"log level: panic, fatal, error, warn, info, debug, trace", false)
	r.AddSetting(&r.Config, "config", "", "", config, "config file", false)
}

// AddSetting adds a setting that is stored in ref, which has to point to a
// string, int, or bool. It can be given as a flag, or via environment
// variable env, which defaults to the name with prefix. Settings from the
// config file have lowest priority.
func (r *Runner) AddSetting(ref interface{}, name, short, env string,
	dflt interface{}, usage string, required bool) {

	flags := r.Flags()

	switch ref.(type) {
	case *string:
		flags.StringP(name, short, cast.ToString(dflt), usage)
	case *int:
		flags.IntP(name, short, cast.ToInt(dflt), usage)
	case *bool:
		flags.BoolP(name, short, cast.ToBool(dflt), usage)
	default:
		panic(fmt.Sprintf("unsupported setting type for %s: %T", name, ref))
	}

	if err := r.viper.BindPFlag(name, flags.Lookup(name)); err != nil {
		log.Errorf("cannot bind flag %s: %v", name, err)
	}

	if env == "" {
		env = EnvPrefix + "_" +
			strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	}
	if err := r.viper.BindEnv(name, env); err != nil {
		log.Errorf("cannot bind environment variable %s: %v", env, err)
	}

	if required {
		r.MarkFlagRequired(name)
	}

	r.settings = append(r.settings, &setting{ref: ref, name: name})
}

// ParseSettings fills in all settings, and applies the log level.
func (r *Runner) ParseSettings() {

	r.viper.SetFs(r.Fs)

	if config := r.viper.GetString("config"); config != "" {
		if ok, _ := afero.Exists(r.Fs, config); ok {
			r.viper.SetConfigFile(config)
			if err := r.viper.ReadInConfig(); err != nil {
				log.Warnf("cannot read config file %s: %v", config, err)
			}
		}
	}

	for _, s := range r.settings {
		switch ref := s.ref.(type) {
		case *string:
			*ref = r.viper.GetString(s.name)
		case *int:
			*ref = r.viper.GetInt(s.name)
		case *bool:
			*ref = r.viper.GetBool(s.name)
		}
	}

	if r.LogLevel != "" {
		if level, err := log.ParseLevel(r.LogLevel); err == nil {
			log.SetLevel(level)
		} else {
			log.Warnf("invalid log level '%s', ignoring", r.LogLevel)
		}
	}

	r.Flags().Visit(func(f *pflag.Flag) {
		log.WithField(f.Name, f.Value.String()).Trace("flag set")
	})
}

// withSession loads the session state, runs fn on it, and saves it again if
// fn changed it.
func (r *Runner) withSession(fn func(t *session.Table) error) error {

	store, err := session.Open(r.Fs, r.State)
	if err != nil {
		return fmt.Errorf("failed to initialize HFS working directories: %w", err)
	}

	err = fn(store.Table())

	if ferr := store.Flush(); ferr != nil {
		if err == nil {
			return fmt.Errorf("failed to save working directory state: %w", ferr)
		}
		r.perror("", fmt.Errorf("failed to save working directory state: %w", ferr))
	}

	return err
}

// remount binds to the current volume of t.
func (r *Runner) remount(t *session.Table, mode volume.Mode) (
	volume.Volume, error) {

	return volume.Remount(r.Engine, t.Get(-1), mode)
}

// unmount closes v. If err is nil, it returns the error from closing the
// volume, otherwise err.
func (r *Runner) unmount(v volume.Volume, err error) error {
	if cerr := v.Close(); cerr != nil {
		cerr = fmt.Errorf("error closing HFS volume: %w", cerr)
		if err == nil {
			return cerr
		}
		r.perror("", cerr)
	}
	return err
}

// perror prints a diagnostic line for subject.
func (r *Runner) perror(subject string, err error) {
	if subject == "" {
		fmt.Fprintf(r.ErrOrStderr(), "%s: %v\n", r.Name(), err)
	} else {
		fmt.Fprintf(r.ErrOrStderr(), "%s: \"%s\": %v\n", r.Name(), subject, err)
	}
}

// updateWorkingDirectory records the current directory of v in entry e.
func (r *Runner) updateWorkingDirectory(t *session.Table, e *session.MountEntry,
	v volume.Volume) error {

	path, err := volume.CurrentPath(v)
	if err != nil {
		return fmt.Errorf("can't get current HFS directory path: %w", err)
	}

	return t.SetWorkingDirectory(e, path)
}

// printVolumeInfo prints name, dates, and free space of v.
func (r *Runner) printVolumeInfo(v volume.Volume) error {

	info, err := v.Info()
	if err != nil {
		return err
	}

	locked := ""
	if info.Locked {
		locked = " (locked)"
	}

	out := r.OutOrStdout()
	fmt.Fprintf(out, "Volume name is \"%s\"%s\n", info.Name, locked)
	fmt.Fprintf(out, "Volume was created on %s\n", ctime(info.Created))
	fmt.Fprintf(out, "Volume was last modified on %s\n", ctime(info.Modified))
	fmt.Fprintf(out, "Volume has %d bytes free\n", info.FreeBytes)

	return nil
}

//
func ctime(t time.Time) string {
	return t.Local().Format("Mon Jan _2 15:04:05 2006")
}

// eachItem runs fn for every item, printing a diagnostic for each failing
// one. It returns ErrReported if any item failed.
func (r *Runner) eachItem(items []string, fn func(item string) error) error {
	var failed bool
	for _, item := range items {
		if err := fn(item); err != nil {
			r.perror(item, err)
			failed = true
		}
	}
	if failed {
		return ErrReported
	}
	return nil
}
