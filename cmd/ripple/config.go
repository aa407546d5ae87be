package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"
	"github.com/tarungka/ripple/engine"
	"github.com/tarungka/ripple/server"
	"github.com/tarungka/ripple/sinks"
	"github.com/tarungka/ripple/state"
)

// errHelp is returned when --help was requested.
var errHelp = errors.New("help requested")

// KafkaConfig is the optional Kafka wiring of the demo catalog.
type KafkaConfig struct {
	Brokers     []string `koanf:"brokers"`
	Topic       string   `koanf:"topic"`
	Group       string   `koanf:"group"`
	OutputTopic string   `koanf:"output_topic"`
}

// Config is the full configuration of the binary.
type Config struct {
	Engine  engine.Config
	Store   state.Config
	Server  server.Config
	Kafka   KafkaConfig
	Output  sinks.SinkConfig
	Dev     bool
	Version bool
}

func newFlagSet() *flag.FlagSet {
	f := flag.NewFlagSet("ripple", flag.ContinueOnError)

	f.StringSlice("config", nil, "path to one or more config files (will be merged in order)")
	f.String("engine.id", "ripple", "engine id under which checkpoints are stored")
	f.Duration("engine.checkpoint_interval", engine.DefaultCheckpointInterval, "interval between periodic checkpoints")
	f.String("store.type", "badger", "checkpoint store: memory, badger or bolt")
	f.String("store.dir", "data", "data directory of the checkpoint store")
	f.String("checkpoint.compression", "snappy", "checkpoint compression: none, snappy or zstd")
	f.String("server.port", "8080", "port to host the web server on")
	f.StringSlice("kafka.brokers", nil, "kafka seed brokers; enables the kafka queries")
	f.String("kafka.topic", "", "kafka topic consumed by the kafka query")
	f.String("kafka.group", "ripple", "kafka consumer group")
	f.String("kafka.output_topic", "", "kafka topic query output is produced to")
	f.String("output.file", "", "file query output is appended to as json lines")
	f.Bool("dev", false, "human readable logs")
	f.Bool("version", false, "show current version of the build")

	return f
}

// loadConfig merges the config files named by --config, then the flags set
// on the command line, over the flag defaults.
func loadConfig(args []string) (*Config, error) {
	ko := koanf.New(".")
	f := newFlagSet()
	if err := f.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, errHelp
		}
		return nil, fmt.Errorf("error loading flags: %w", err)
	}

	configs, _ := f.GetStringSlice("config")
	for _, path := range configs {
		var parser koanf.Parser
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config file extension: %s", path)
		}
		if err := ko.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("error reading config %s: %w", path, err)
		}
	}

	if err := ko.Load(posflag.Provider(f, ".", ko), nil); err != nil {
		return nil, fmt.Errorf("error reading flag config: %w", err)
	}

	var cfg Config
	if err := ko.Unmarshal("engine", &cfg.Engine); err != nil {
		return nil, err
	}
	if err := ko.Unmarshal("store", &cfg.Store); err != nil {
		return nil, err
	}
	if err := ko.Unmarshal("server", &cfg.Server); err != nil {
		return nil, err
	}
	if err := ko.Unmarshal("kafka", &cfg.Kafka); err != nil {
		return nil, err
	}
	cfg.Engine.Compression = ko.String("checkpoint.compression")
	cfg.Output = outputConfig(ko.String("output.file"), cfg.Kafka)
	cfg.Dev = ko.Bool("dev")
	cfg.Version = ko.Bool("version")
	return &cfg, nil
}

// outputConfig picks the sink: a file if one is named, else the kafka
// output topic, else the log.
func outputConfig(path string, kafka KafkaConfig) sinks.SinkConfig {
	switch {
	case path != "":
		return sinks.SinkConfig{Type: "file", FilePath: path}
	case kafka.OutputTopic != "":
		return sinks.SinkConfig{Type: "kafka", Brokers: kafka.Brokers, Topic: kafka.OutputTopic}
	default:
		return sinks.SinkConfig{Type: "log"}
	}
}
