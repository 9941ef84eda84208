package main

import (
	"sceneview/internal/config"
	"sceneview/internal/log"

	"github.com/urfave/cli"
)

var logger = log.New("sceneview")

// setup loads the settings file, if any, and applies the log level. The
// -v flags win over the file.
func setup(ctx *cli.Context) (config.Settings, error) {
	s := config.Defaults()
	if path := ctx.GlobalString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return s, err
		}
		s = loaded
	}
	config.Set(s)

	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return s, err
	}
	log.SetLevel(level)
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}
	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
	return config.Get(), nil
}
