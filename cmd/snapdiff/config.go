package main

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cdnctl/snapdiff/pkg/config"
)

// configFlags pairs fields of config.Config with the flags which can
// set them. Each command defines only the flags it needs, so binding
// happens once the command to run is known.
var configFlags = []struct {
	field, flag string
}{
	{"LogFormat", "log-format"},
	{"Output", "output"},
	{"Categories", "category"},
	{"WatchInterval", "interval"},
	{"ListenMetrics", "listen-metrics"},
}

// bindConfigFlags binds whichever of the config flags are defined in fs
// to the config file field names, so that viper finds a flag if given
// and falls back to the file otherwise.
func bindConfigFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	bind := func(fieldName, flagName string) error {
		configStruct := reflect.TypeOf(config.Config{})
		field, ok := configStruct.FieldByName(fieldName)
		if !ok {
			return fmt.Errorf("attempt to bind a flag to a field not present in config.Config, %q", fieldName)
		}
		tag := field.Tag
		// this parallels the logic in
		// github.com/mitchellh/mapstructure, except that we want to
		// bail if a field is mentioned that is marked ignore, like
		// this: `mapstructure:"-"`
		mappedName := field.Name
		mapstructureTagParts := strings.Split(tag.Get("mapstructure"), ",")
		if namePart := mapstructureTagParts[0]; namePart != "" {
			if namePart == "-" { // means ignore this field
				return fmt.Errorf(`attempt to bind a flag to a config field tagged as ignored, %q`, field.Name)
			}
			mappedName = namePart
		}
		return v.BindPFlag(mappedName, fs.Lookup(flagName))
	}

	for _, f := range configFlags {
		if fs.Lookup(f.flag) == nil {
			continue
		}
		if err := bind(f.field, f.flag); err != nil {
			return err
		}
	}
	return nil
}
