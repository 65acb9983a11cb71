package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"
	"github.com/vkngwrapper/lhll/app"
	"github.com/vkngwrapper/lhll/config"
	"github.com/vkngwrapper/lhll/logx"
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("lhll", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to a TOML config file")
	width := flags.Int("width", 0, "initial window width")
	height := flags.Int("height", 0, "initial window height")
	validation := flags.Bool("validation", false, "enable the Khronos validation layer")
	vsync := flags.Bool("vsync", false, "prefer FIFO presentation")
	framesInFlight := flags.Int("frames-in-flight", 0, "maximum frames in flight")
	logLevel := flags.String("log-level", "", "debug, info, warn or error")
	watchShaders := flags.Bool("watch-shaders", false, "rebuild pipelines when SPIR-V files change")
	dumpConfig := flags.Bool("dump-config", false, "print the effective config and exit")

	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	if flags.Changed("width") {
		cfg.Window.Width = *width
	}
	if flags.Changed("height") {
		cfg.Window.Height = *height
	}
	if flags.Changed("validation") {
		cfg.Renderer.Validation = *validation
	}
	if flags.Changed("vsync") {
		cfg.Renderer.VSync = *vsync
	}
	if flags.Changed("frames-in-flight") {
		cfg.Renderer.MaxFramesInFlight = *framesInFlight
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}
	if flags.Changed("watch-shaders") {
		cfg.Assets.WatchShaders = *watchShaders
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if *dumpConfig {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(os.Stdout, string(data))
		return err
	}

	logger, err := logx.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	return app.Run(cfg, logger)
}
