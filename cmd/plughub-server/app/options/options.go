package options

import (
	"errors"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/plughub-io/plughub/internal/hub"
	"github.com/plughub-io/plughub/pkg/log"
	"github.com/plughub-io/plughub/pkg/options"
)

// HubOptions aggregates the flag groups of the hub server.
type HubOptions struct {
	HttpOptions     *options.HttpOptions     `json:"http" mapstructure:"http"`
	MqttOptions     *options.MqttOptions     `json:"mqtt" mapstructure:"mqtt"`
	DingTalkOptions *options.DingTalkOptions `json:"dingtalk" mapstructure:"dingtalk"`
	SocketOptions   *options.SocketOptions   `json:"socket" mapstructure:"socket"`
	Log             *log.Options             `json:"log" mapstructure:"log"`

	// ConfigFile is an optional YAML file merged below the command line.
	ConfigFile string `json:"-" mapstructure:"-"`
}

func NewHubOptions() *HubOptions {
	return &HubOptions{
		HttpOptions:     options.NewHttpOptions(),
		MqttOptions:     options.NewMqttOptions(),
		DingTalkOptions: options.NewDingTalkOptions(),
		SocketOptions:   options.NewSocketOptions(),
		Log:             log.NewOptions(),
	}
}

// AddFlags adds all hub flags to the given FlagSet.
func (o *HubOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFile, "config", "c", o.ConfigFile, "Path to a YAML configuration file.")

	o.HttpOptions.AddFlags(fs)
	o.MqttOptions.AddFlags(fs)
	o.DingTalkOptions.AddFlags(fs)
	o.SocketOptions.AddFlags(fs)
	o.Log.AddFlags(fs)
}

// Complete loads the config file, if any, into the options. Values given on
// the command line win over file values.
func (o *HubOptions) Complete(fs *pflag.FlagSet) error {
	if o.ConfigFile == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(o.ConfigFile)
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	fileOpts := NewHubOptions()
	if err := v.Unmarshal(fileOpts); err != nil {
		return err
	}

	// Keep any value the user set explicitly on the command line.
	cli := *o
	*o = *fileOpts
	o.ConfigFile = cli.ConfigFile
	if fs != nil {
		restoreChangedFlags(fs, o, &cli)
	}

	return nil
}

// restoreChangedFlags re-applies flag values over the file-loaded options by
// re-parsing the changed flags against the merged struct's flag set.
func restoreChangedFlags(parsed *pflag.FlagSet, merged, cli *HubOptions) {
	mergedFS := pflag.NewFlagSet("merged", pflag.ContinueOnError)
	merged.AddFlags(mergedFS)

	parsed.Visit(func(f *pflag.Flag) {
		if target := mergedFS.Lookup(f.Name); target != nil {
			_ = target.Value.Set(f.Value.String())
		}
	})
}

// Validate checks every flag group and aggregates their failures.
func (o *HubOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.DingTalkOptions.Validate()...)
	errs = append(errs, o.SocketOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errors.Join(errs...)
}

// Config builds the runnable hub configuration from the options.
func (o *HubOptions) Config() (*hub.Config, error) {
	return &hub.Config{
		HttpOptions:     o.HttpOptions,
		MqttOptions:     o.MqttOptions,
		DingTalkOptions: o.DingTalkOptions,
		SocketOptions:   o.SocketOptions,
	}, nil
}
