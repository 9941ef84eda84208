package main

import (
	"bytes"
	"io"

	"sceneview/internal/gpu"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Caps lists the capabilities of a GL context, or of the recorder.
func Caps(ctx *cli.Context) error {
	s, err := setup(ctx)
	if err != nil {
		return err
	}

	caps := gpu.DefaultCapabilities()
	if !ctx.Bool("headless") {
		window, device, err := openDevice(s.Title, 64, 64)
		if err != nil {
			return err
		}
		caps = device.Capabilities()
		device.Destroy()
		closeWindow(window)
	}

	var buf bytes.Buffer
	writeCaps(&buf, caps)
	logger.Noticef("context capabilities\n%s", buf.String())
	return nil
}

func writeCaps(w io.Writer, caps gpu.Capabilities) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Capability", "Value"})
	table.AppendBulk(caps.Rows())
	for _, v := range []gpu.ContextVersion{gpu.GLES20, gpu.GLES30, gpu.GLES31, gpu.GLES32} {
		supported := "no"
		if caps.Supports(v) {
			supported = "yes"
		}
		table.Append([]string{"Supports " + v.String(), supported})
	}
	table.Render()
}
