package main

import (
	"os"
	"runtime"

	"github.com/urfave/cli"
)

func init() {
	// GL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "sceneview"
	app.Usage = "compose render passes and draw scenes through them"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "settings file (.toml, .yaml or .yml)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "open a window and render the demo scene",
			Description: `
Render the demo scene through the pipeline preset named in the settings file
(or --pipeline). The settings file is watched; frame rate, clear color and
pipeline changes apply without a restart.

Keys: P cycles presets, A/D orbit, W/S zoom, Space toggles the spin,
H hides the view, V logs frame and pool stats, Esc quits.`,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "pipeline, p",
					Usage: "pipeline preset, overriding the settings file",
				},
				cli.IntFlag{
					Name:  "fps",
					Value: -1,
					Usage: "frame rate cap, 0 for unlimited; overrides the settings file",
				},
			},
			Action: Run,
		},
		{
			Name:  "caps",
			Usage: "list the capabilities of the graphics context",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "headless",
					Usage: "report the recorder device instead of opening a GL context",
				},
			},
			Action: Caps,
		},
		{
			Name:  "describe",
			Usage: "print the render tree of a pipeline preset",
			Description: `
Build the preset on a recording device and print its passes, subpasses and
attachment roles, along with the Vulkan render pass each pass maps to.`,
			ArgsUsage: "[preset ...]",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "samples",
					Value: 1,
					Usage: "sample count for presets that multisample",
				},
			},
			Action: Describe,
		},
		{
			Name:  "capture",
			Usage: "render the demo scene off-screen and save it as an image",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "image width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "image height",
				},
				cli.IntFlag{
					Name:  "samples",
					Value: 1,
					Usage: "samples per pixel",
				},
				cli.IntFlag{
					Name:  "frames",
					Value: 1,
					Usage: "frames to render before reading back",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename; the extension picks png, bmp or tiff",
				},
				cli.BoolFlag{
					Name:  "headless",
					Usage: "render on the recorder device (produces a blank image)",
				},
			},
			Action: Capture,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
