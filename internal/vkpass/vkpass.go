// Package vkpass translates render passes into Vulkan render pass
// descriptions.
package vkpass

import (
	"errors"
	"fmt"
	"strconv"

	"sceneview/internal/gpu"
	"sceneview/internal/render"

	vk "github.com/vulkan-go/vulkan"
)

var ErrNotInitialized = errors.New("vkpass: render pass is not initialized")

var formats = map[gpu.Format]vk.Format{
	gpu.RGBA8:           vk.FormatR8g8b8a8Unorm,
	gpu.RGBA16F:         vk.FormatR16g16b16a16Sfloat,
	gpu.R8:              vk.FormatR8Unorm,
	gpu.Depth16:         vk.FormatD16Unorm,
	gpu.Depth24Stencil8: vk.FormatD24UnormS8Uint,
	gpu.Depth32F:        vk.FormatD32Sfloat,
}

func sampleCount(n int) (vk.SampleCountFlagBits, error) {
	switch n {
	case 0, 1:
		return vk.SampleCount1Bit, nil
	case 2:
		return vk.SampleCount2Bit, nil
	case 4:
		return vk.SampleCount4Bit, nil
	case 8:
		return vk.SampleCount8Bit, nil
	case 16:
		return vk.SampleCount16Bit, nil
	}
	return 0, fmt.Errorf("%w: %d samples", gpu.ErrUnsupportedCapability, n)
}

func attachmentLayout(f gpu.Format) vk.ImageLayout {
	if f.IsDepth() {
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	}
	return vk.ImageLayoutColorAttachmentOptimal
}

// Describe returns the Vulkan equivalent of pass: one attachment
// description per descriptor, one subpass description per subpass with all
// five role lists, and a by-region dependency wherever a subpass reads what
// an earlier one wrote.
func Describe(pass *render.RenderPass) (vk.RenderPassCreateInfo, error) {
	if !pass.Initialized() {
		return vk.RenderPassCreateInfo{}, ErrNotInitialized
	}
	subpasses := pass.Children()

	attachments := make([]vk.AttachmentDescription, len(pass.Attachments()))
	for i, d := range pass.Attachments() {
		desc, err := describeAttachment(pass, i, d)
		if err != nil {
			return vk.RenderPassCreateInfo{}, fmt.Errorf("%s attachment %d: %w", pass.Label(), i, err)
		}
		attachments[i] = desc
	}

	descs := make([]vk.SubpassDescription, len(subpasses))
	for i, s := range subpasses {
		descs[i] = describeSubpass(pass, s.Roles())
	}

	deps := dependencies(subpasses)
	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(descs)),
		PSubpasses:      descs,
		DependencyCount: uint32(len(deps)),
		PDependencies:   deps,
	}, nil
}

// DescribeFrame describes every pass of fr in render order.
func DescribeFrame(fr *render.FrameRender) ([]vk.RenderPassCreateInfo, error) {
	var out []vk.RenderPassCreateInfo
	for _, p := range fr.Passes() {
		info, err := Describe(p)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

func describeAttachment(pass *render.RenderPass, i int, d render.AttachmentDescriptor) (vk.AttachmentDescription, error) {
	format, ok := formats[d.Format]
	if !ok {
		return vk.AttachmentDescription{}, fmt.Errorf("%w: format %s", gpu.ErrUnsupportedCapability, d.Format)
	}
	samples, err := sampleCount(d.Samples)
	if err != nil {
		return vk.AttachmentDescription{}, err
	}

	load, initial := vk.AttachmentLoadOpClear, vk.ImageLayoutUndefined
	if !d.ClearBeforeFirstUse {
		load = vk.AttachmentLoadOpLoad
		initial = attachmentLayout(d.Format)
		if pass.Sampled(i) {
			initial = vk.ImageLayoutShaderReadOnlyOptimal
		}
	}
	store, final := vk.AttachmentStoreOpDontCare, attachmentLayout(d.Format)
	switch {
	case pass.Sampled(i):
		store, final = vk.AttachmentStoreOpStore, vk.ImageLayoutShaderReadOnlyOptimal
	case d.PreserveAfterLastUse:
		store = vk.AttachmentStoreOpStore
	case pass.RendersToScreen() && !d.Format.IsDepth() && writtenByLast(pass, i):
		store, final = vk.AttachmentStoreOpStore, vk.ImageLayoutPresentSrc
	}

	stencilLoad, stencilStore := vk.AttachmentLoadOpDontCare, vk.AttachmentStoreOpDontCare
	if d.Format.HasStencil() {
		stencilLoad, stencilStore = load, store
	}
	return vk.AttachmentDescription{
		Format:         format,
		Samples:        samples,
		LoadOp:         load,
		StoreOp:        store,
		StencilLoadOp:  stencilLoad,
		StencilStoreOp: stencilStore,
		InitialLayout:  initial,
		FinalLayout:    final,
	}, nil
}

func writtenByLast(pass *render.RenderPass, i int) bool {
	return pass.Last().Roles().Writes(i)
}

func describeSubpass(pass *render.RenderPass, r render.AttachmentRoles) vk.SubpassDescription {
	atts := pass.Attachments()
	ref := func(i int, layout vk.ImageLayout) vk.AttachmentReference {
		if i == render.NoAttachment {
			return vk.AttachmentReference{Attachment: vk.AttachmentUnused, Layout: vk.ImageLayoutUndefined}
		}
		return vk.AttachmentReference{Attachment: uint32(i), Layout: layout}
	}

	desc := vk.SubpassDescription{PipelineBindPoint: vk.PipelineBindPointGraphics}
	for _, i := range r.Inputs {
		desc.PInputAttachments = append(desc.PInputAttachments, ref(i, vk.ImageLayoutShaderReadOnlyOptimal))
	}
	desc.InputAttachmentCount = uint32(len(desc.PInputAttachments))
	for _, i := range r.Colors {
		desc.PColorAttachments = append(desc.PColorAttachments, ref(i, vk.ImageLayoutColorAttachmentOptimal))
	}
	desc.ColorAttachmentCount = uint32(len(desc.PColorAttachments))
	for _, i := range r.Resolves {
		desc.PResolveAttachments = append(desc.PResolveAttachments, ref(i, vk.ImageLayoutColorAttachmentOptimal))
	}
	if r.DepthStencil != render.NoAttachment {
		d := ref(r.DepthStencil, attachmentLayout(atts[r.DepthStencil].Format))
		desc.PDepthStencilAttachment = &d
	}
	for _, i := range r.Preserves {
		desc.PPreserveAttachments = append(desc.PPreserveAttachments, uint32(i))
	}
	desc.PreserveAttachmentCount = uint32(len(desc.PPreserveAttachments))
	return desc
}

func dependencies(subpasses []*render.Subpass) []vk.SubpassDependency {
	var deps []vk.SubpassDependency
	for dst, s := range subpasses {
		for src := 0; src < dst; src++ {
			w := subpasses[src].Roles()
			reads := false
			for _, in := range s.Roles().Inputs {
				if w.Writes(in) {
					reads = true
					break
				}
			}
			if !reads {
				continue
			}
			deps = append(deps, vk.SubpassDependency{
				SrcSubpass: uint32(src),
				DstSubpass: uint32(dst),
				SrcStageMask: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit |
					vk.PipelineStageLateFragmentTestsBit),
				DstStageMask: vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
				SrcAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit |
					vk.AccessDepthStencilAttachmentWriteBit),
				DstAccessMask:   vk.AccessFlags(vk.AccessInputAttachmentReadBit),
				DependencyFlags: vk.DependencyFlags(vk.DependencyByRegionBit),
			})
		}
	}
	return deps
}

// Rows summarizes info for display, one row per attachment.
func Rows(info vk.RenderPassCreateInfo) [][]string {
	rows := make([][]string, 0, len(info.PAttachments))
	for i, a := range info.PAttachments {
		rows = append(rows, []string{
			strconv.Itoa(i),
			fmt.Sprint(a.Format),
			fmt.Sprint(a.Samples),
			loadName(a.LoadOp),
			storeName(a.StoreOp),
			layoutName(a.FinalLayout),
		})
	}
	return rows
}

func loadName(op vk.AttachmentLoadOp) string {
	switch op {
	case vk.AttachmentLoadOpClear:
		return "clear"
	case vk.AttachmentLoadOpLoad:
		return "load"
	}
	return "dont-care"
}

func storeName(op vk.AttachmentStoreOp) string {
	if op == vk.AttachmentStoreOpStore {
		return "store"
	}
	return "dont-care"
}

func layoutName(l vk.ImageLayout) string {
	switch l {
	case vk.ImageLayoutColorAttachmentOptimal:
		return "color-attachment"
	case vk.ImageLayoutDepthStencilAttachmentOptimal:
		return "depth-stencil-attachment"
	case vk.ImageLayoutShaderReadOnlyOptimal:
		return "shader-read-only"
	case vk.ImageLayoutPresentSrc:
		return "present"
	}
	return "undefined"
}
