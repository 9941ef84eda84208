package vkpass

import (
	"testing"

	"sceneview/internal/gpu"
	"sceneview/internal/object"
	"sceneview/internal/render"
	"sceneview/internal/render/preset"
	"sceneview/internal/scene"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func newView(t *testing.T) (*scene.View, preset.Options) {
	t.Helper()
	v := scene.NewView(gpu.NewRecorder(gpu.DefaultCapabilities()), scene.WithViewport(gpu.Rect{W: 64, H: 64}))
	t.Cleanup(v.Destroy)
	return v, preset.Options{Quad: object.NewScreenQuad(render.NewPipelineTable())}
}

func TestDescribeNeedsInitializedPass(t *testing.T) {
	v, o := newView(t)
	fr := preset.Forward(v, o)
	_, err := Describe(fr.Passes()[0])
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestDescribePostProcess(t *testing.T) {
	v, o := newView(t)
	fr := preset.PostProcess(v, o)
	require.NoError(t, v.SetOnScreenRender(fr))

	info, err := Describe(fr.FinalPass())
	require.NoError(t, err)
	assert.Equal(t, vk.StructureTypeRenderPassCreateInfo, info.SType)
	require.Equal(t, uint32(3), info.AttachmentCount)
	require.Equal(t, uint32(2), info.SubpassCount)

	depth, scene, out := info.PAttachments[0], info.PAttachments[1], info.PAttachments[2]
	assert.Equal(t, vk.FormatD16Unorm, depth.Format)
	assert.Equal(t, vk.AttachmentStoreOpDontCare, depth.StoreOp)
	assert.Equal(t, vk.AttachmentLoadOpClear, scene.LoadOp)
	assert.Equal(t, vk.AttachmentStoreOpStore, scene.StoreOp)
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, scene.FinalLayout)
	assert.Equal(t, vk.ImageLayoutPresentSrc, out.FinalLayout)

	first, second := info.PSubpasses[0], info.PSubpasses[1]
	require.NotNil(t, first.PDepthStencilAttachment)
	assert.Equal(t, uint32(0), first.PDepthStencilAttachment.Attachment)
	assert.Equal(t, uint32(1), first.ColorAttachmentCount)
	assert.Nil(t, second.PDepthStencilAttachment)
	require.Equal(t, uint32(1), second.InputAttachmentCount)
	assert.Equal(t, uint32(1), second.PInputAttachments[0].Attachment)
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, second.PInputAttachments[0].Layout)

	require.Equal(t, uint32(1), info.DependencyCount)
	dep := info.PDependencies[0]
	assert.Equal(t, uint32(0), dep.SrcSubpass)
	assert.Equal(t, uint32(1), dep.DstSubpass)
	assert.Equal(t, vk.DependencyFlags(vk.DependencyByRegionBit), dep.DependencyFlags)

	assert.Len(t, Rows(info), 3)
	assert.Equal(t, "present", Rows(info)[2][5])
}

func TestDescribeResolve(t *testing.T) {
	v, o := newView(t)
	o.Samples = 4
	fr, out := preset.OffScreen(v, o)
	require.NoError(t, v.AddOffScreenRender(fr))

	info, err := Describe(fr.FinalPass())
	require.NoError(t, err)
	assert.Equal(t, vk.SampleCount4Bit, info.PAttachments[1].Samples)
	assert.Equal(t, vk.SampleCount1Bit, info.PAttachments[out].Samples)
	assert.Equal(t, vk.AttachmentStoreOpStore, info.PAttachments[out].StoreOp)

	sub := info.PSubpasses[0]
	require.Len(t, sub.PResolveAttachments, 1)
	assert.Equal(t, uint32(out), sub.PResolveAttachments[0].Attachment)
	assert.Zero(t, info.DependencyCount)
}

func TestDescribeFrameRoutes(t *testing.T) {
	v, o := newView(t)
	fr := preset.Deferred(v, o)
	require.NoError(t, v.SetOnScreenRender(fr))

	infos, err := DescribeFrame(fr)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	gbuffer := infos[0]
	assert.Equal(t, vk.FormatD24UnormS8Uint, gbuffer.PAttachments[0].Format)
	assert.Equal(t, vk.AttachmentLoadOpClear, gbuffer.PAttachments[0].StencilLoadOp)
	assert.Equal(t, vk.FormatR16g16b16a16Sfloat, gbuffer.PAttachments[2].Format)
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, gbuffer.PAttachments[2].FinalLayout)

	lighting := infos[1]
	assert.Equal(t, vk.AttachmentLoadOpLoad, lighting.PAttachments[1].LoadOp)
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, lighting.PAttachments[1].InitialLayout)
	assert.Equal(t, uint32(2), lighting.PSubpasses[0].InputAttachmentCount)
}
