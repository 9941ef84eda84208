package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"sceneview/internal/gpu"
	"sceneview/internal/object"
	"sceneview/internal/render"
	"sceneview/internal/render/preset"
	"sceneview/internal/scene"
	"sceneview/internal/vkpass"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// offScreenPreset names the capture target in describe.
const offScreenPreset = "off-screen"

// Describe prints the render tree of each named preset, or of all of them.
func Describe(ctx *cli.Context) error {
	if _, err := setup(ctx); err != nil {
		return err
	}
	names := []string(ctx.Args())
	if len(names) == 0 {
		names = append(preset.Names(), offScreenPreset)
	}

	var buf bytes.Buffer
	for _, name := range names {
		if err := describePreset(&buf, name, ctx.Int("samples")); err != nil {
			return err
		}
	}
	logger.Noticef("render trees\n%s", buf.String())
	return nil
}

// describePreset builds name on a recording device and writes its tree and
// Vulkan render passes to w.
func describePreset(w io.Writer, name string, samples int) error {
	rec := gpu.NewRecorder(gpu.DefaultCapabilities())
	view := scene.NewView(rec, scene.WithViewport(gpu.Rect{W: 512, H: 512}))
	defer view.Destroy()
	o := preset.Options{Quad: object.NewScreenQuad(render.NewPipelineTable()), Samples: samples}

	var fr *render.FrameRender
	if name == offScreenPreset {
		fr, _ = preset.OffScreen(view, o)
		if err := view.AddOffScreenRender(fr); err != nil {
			return err
		}
	} else {
		var err error
		if fr, err = preset.ByName(view, name, o); err != nil {
			return err
		}
		if err := view.SetOnScreenRender(fr); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "\n%s (needs %s, on screen: %t)\n", fr.Name(), fr.MinVersion(), fr.RendersToScreen())
	writeTree(w, fr)

	infos, err := vkpass.DescribeFrame(fr)
	if err != nil {
		return err
	}
	for i, info := range infos {
		fmt.Fprintf(w, "vulkan render pass %d: %d subpasses, %d dependencies\n", i, info.SubpassCount, info.DependencyCount)
		table := tablewriter.NewWriter(w)
		table.SetAutoFormatHeaders(false)
		table.SetHeader([]string{"#", "Format", "Samples", "Load", "Store", "Final layout"})
		table.AppendBulk(vkpass.Rows(info))
		table.Render()
	}
	return nil
}

func writeTree(w io.Writer, fr *render.FrameRender) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Component", "Pipeline", "Needs", "Attachments / roles"})
	for _, p := range fr.Passes() {
		table.Append([]string{p.Label(), "", p.MinVersion().String(), attachmentList(p)})
		for _, s := range p.Children() {
			table.Append([]string{"  " + s.Label(), s.Pipeline().String(), s.MinVersion().String(), rolesString(s.Roles())})
		}
	}
	table.Render()
}

// attachmentList renders "0:RGBA8 1:Depth16*", starring sampled
// attachments.
func attachmentList(p *render.RenderPass) string {
	parts := make([]string, 0, len(p.Attachments()))
	for i, d := range p.Attachments() {
		s := fmt.Sprintf("%d:%s", i, d.Format)
		if d.Samples > 1 {
			s += fmt.Sprintf("x%d", d.Samples)
		}
		if p.Sampled(i) {
			s += "*"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

func rolesString(r render.AttachmentRoles) string {
	var parts []string
	add := func(name string, idx []int) {
		if len(idx) > 0 {
			parts = append(parts, fmt.Sprintf("%s=%v", name, idx))
		}
	}
	add("in", r.Inputs)
	if r.DepthStencil != render.NoAttachment {
		parts = append(parts, fmt.Sprintf("ds=%d", r.DepthStencil))
	}
	add("color", r.Colors)
	add("resolve", r.Resolves)
	add("preserve", r.Preserves)
	return strings.Join(parts, " ")
}
