package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// pushConstantSize covers one mat4 transform plus one vec4 diffuse colour,
// inside the 128-byte push constant minimum every Vulkan device guarantees.
const pushConstantSize = 16*4 + 4*4

// Pipeline holds a Vulkan pipeline, its layout and the shader modules it was
// built from.
type Pipeline struct {
	Handle         vk.Pipeline
	PipelineLayout vk.PipelineLayout
	modules        []vk.ShaderModule
	key            metadata.PipelineKey
}

// newPipeline builds the pipeline state object for a key against the host's
// render pass. Blend, depth and cull configuration come straight from the
// key; viewport and scissor stay dynamic so a resize does not invalidate
// the cache.
func newPipeline(ctx *Context, key metadata.PipelineKey, shader *metadata.ShaderData) (*Pipeline, error) {
	if shader.RequiresGeometryStage {
		return nil, &core.UnsupportedFeatureError{Backend: "vulkan", Feature: "geometry shader stage"}
	}
	if len(shader.VertexSPIRV) == 0 || len(shader.FragmentSPIRV) == 0 {
		return nil, fmt.Errorf("vulkan: shader %q carries no SPIR-V", key.Shader)
	}

	out := &Pipeline{key: key}

	vertModule, err := newShaderModule(ctx, shader.VertexSPIRV)
	if err != nil {
		return nil, err
	}
	fragModule, err := newShaderModule(ctx, shader.FragmentSPIRV)
	if err != nil {
		vk.DestroyShaderModule(ctx.Device, vertModule, ctx.Allocator)
		return nil, err
	}
	out.modules = []vk.ShaderModule{vertModule, fragModule}

	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vertModule,
			PName:  "main\x00",
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fragModule,
			PName:  "main\x00",
		},
	}

	viewport := vk.Viewport{
		Width:    float32(ctx.FramebufferWidth),
		Height:   float32(ctx.FramebufferHeight),
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Extent: vk.Extent2D{Width: ctx.FramebufferWidth, Height: ctx.FramebufferHeight},
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{scissor},
	}
	viewportState.Deref()

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		LineWidth:   1.0,
		FrontFace:   vk.FrontFaceCounterClockwise,
	}
	switch key.CullMode {
	case metadata.FaceCullModeNone:
		rasterizer.CullMode = vk.CullModeFlags(vk.CullModeNone)
	case metadata.FaceCullModeFront:
		rasterizer.CullMode = vk.CullModeFlags(vk.CullModeFrontBit)
	case metadata.FaceCullModeFrontAndBack:
		rasterizer.CullMode = vk.CullModeFlags(vk.CullModeFrontAndBack)
	default:
		rasterizer.CullMode = vk.CullModeFlags(vk.CullModeBackBit)
	}
	rasterizer.Deref()

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}
	multisampling.Deref()

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType: vk.StructureTypePipelineDepthStencilStateCreateInfo,
	}
	if key.DepthTest {
		depthStencil.DepthTestEnable = vk.True
		depthStencil.DepthCompareOp = vk.CompareOpLess
	}
	if key.DepthWrite {
		depthStencil.DepthWriteEnable = vk.True
	}
	depthStencil.Deref()

	blendAttachment := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	switch key.Blend {
	case metadata.BlendModeAlpha:
		blendAttachment.BlendEnable = vk.True
		blendAttachment.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		blendAttachment.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		blendAttachment.ColorBlendOp = vk.BlendOpAdd
		blendAttachment.SrcAlphaBlendFactor = vk.BlendFactorSrcAlpha
		blendAttachment.DstAlphaBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		blendAttachment.AlphaBlendOp = vk.BlendOpAdd
	case metadata.BlendModeAdditive:
		blendAttachment.BlendEnable = vk.True
		blendAttachment.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		blendAttachment.DstColorBlendFactor = vk.BlendFactorOne
		blendAttachment.ColorBlendOp = vk.BlendOpAdd
		blendAttachment.SrcAlphaBlendFactor = vk.BlendFactorOne
		blendAttachment.DstAlphaBlendFactor = vk.BlendFactorOne
		blendAttachment.AlphaBlendOp = vk.BlendOpAdd
	}
	blendAttachment.Deref()

	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttachment},
	}
	colorBlend.Deref()

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}
	dynamicState.Deref()

	bindingDescription := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    vertexStride,
		InputRate: vk.VertexInputRateVertex,
	}
	bindingDescription.Deref()

	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{bindingDescription},
		VertexAttributeDescriptionCount: uint32(len(vertexAttributes)),
		PVertexAttributeDescriptions:    vertexAttributes,
	}
	vertexInput.Deref()

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: vk.PrimitiveTopologyTriangleList,
	}
	inputAssembly.Deref()

	pushConstantRange := vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit) | vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		Offset:     0,
		Size:       pushConstantSize,
	}
	pushConstantRange.Deref()

	layoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		PushConstantRangeCount: 1,
		PPushConstantRanges:    []vk.PushConstantRange{pushConstantRange},
	}
	layoutCreateInfo.Deref()

	var layout vk.PipelineLayout
	if result := vk.CreatePipelineLayout(ctx.Device, &layoutCreateInfo, ctx.Allocator, &layout); !resultIsSuccess(result) {
		out.Destroy(ctx)
		return nil, resultErr("vkCreatePipelineLayout", result)
	}
	out.PipelineLayout = layout

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlend,
		PDynamicState:       &dynamicState,
		Layout:              out.PipelineLayout,
		RenderPass:          ctx.RenderPass,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}
	pipelineCreateInfo.Deref()

	pipelines := make([]vk.Pipeline, 1)
	result := vk.CreateGraphicsPipelines(
		ctx.Device,
		vk.NullPipelineCache,
		1,
		[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
		ctx.Allocator,
		pipelines)
	if !resultIsSuccess(result) {
		out.Destroy(ctx)
		return nil, resultErr("vkCreateGraphicsPipelines", result)
	}
	out.Handle = pipelines[0]

	core.LogDebug("vulkan: built pipeline for shader %q", key.Shader)
	return out, nil
}

func newShaderModule(ctx *Context, code []uint32) (vk.ShaderModule, error) {
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}
	var module vk.ShaderModule
	if result := vk.CreateShaderModule(ctx.Device, &createInfo, ctx.Allocator, &module); !resultIsSuccess(result) {
		return vk.NullShaderModule, resultErr("vkCreateShaderModule", result)
	}
	return module, nil
}

func (p *Pipeline) Destroy(ctx *Context) {
	if p.Handle != vk.NullPipeline {
		vk.DestroyPipeline(ctx.Device, p.Handle, ctx.Allocator)
		p.Handle = vk.NullPipeline
	}
	if p.PipelineLayout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(ctx.Device, p.PipelineLayout, ctx.Allocator)
		p.PipelineLayout = vk.NullPipelineLayout
	}
	for _, module := range p.modules {
		vk.DestroyShaderModule(ctx.Device, module, ctx.Allocator)
	}
	p.modules = nil
}

func (p *Pipeline) Bind(cmdBuf vk.CommandBuffer) {
	vk.CmdBindPipeline(cmdBuf, vk.PipelineBindPointGraphics, p.Handle)
}
