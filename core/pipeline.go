// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/present/device"
)

// VertexLayout describes the vertex buffers a pipeline consumes
type VertexLayout struct {
	Bindings   []device.VertexBinding
	Attributes []device.VertexAttribute
}

// Pipeline is a render pass with a single color attachment and a graphics
// pipeline whose viewport and scissor are dynamic, so a resize only needs
// new framebuffers. It is rebuilt when the color format changes.
type Pipeline struct {
	Layout     device.PipelineLayout
	RenderPass device.RenderPass
	Handle     device.Pipeline
	Format     device.Format

	ctx *DeviceContext
}

func pickStages(shaders []ShaderCode) (vert, frag *ShaderCode) {
	for i := range shaders {
		switch shaders[i].Type {
		case VertexShaderType:
			if vert == nil {
				vert = &shaders[i]
			}
		case FragmentShaderType:
			if frag == nil {
				frag = &shaders[i]
			}
		}
	}
	return vert, frag
}

// BuildPipeline creates the render pass, layout and pipeline for the color
// format. The first vertex and fragment shaders found are used.
func BuildPipeline(ctx *DeviceContext, shaders []ShaderCode, vertices VertexLayout, extent device.Extent2D, format device.Format) (*Pipeline, error) {
	vert, frag := pickStages(shaders)
	if vert == nil || frag == nil {
		return nil, failf(ErrPipelineCreation, "need a vertex and a fragment shader, got %d shaders", len(shaders))
	}

	drv := ctx.Driver
	p := &Pipeline{Format: format, ctx: ctx}

	renderPass, err := drv.CreateRenderPass(ctx.Device, device.RenderPassCreateInfo{ColorFormat: format})
	if err != nil {
		return nil, fail(ErrPipelineCreation, err, "CreateRenderPass()")
	}
	p.RenderPass = renderPass

	layout, err := drv.CreatePipelineLayout(ctx.Device)
	if err != nil {
		p.Destroy()
		return nil, fail(ErrPipelineCreation, err, "CreatePipelineLayout()")
	}
	p.Layout = layout

	var stages []device.ShaderStageInfo
	defer func() {
		for _, s := range stages {
			drv.DestroyShaderModule(ctx.Device, s.Module)
		}
	}()
	for _, code := range []*ShaderCode{vert, frag} {
		module, err := drv.CreateShaderModule(ctx.Device, code.Code)
		if err != nil {
			p.Destroy()
			return nil, fail(ErrPipelineCreation, err, "CreateShaderModule("+code.Name+"."+code.Type.String()+")")
		}
		stages = append(stages, device.ShaderStageInfo{
			Stage:  code.Type.stage(),
			Module: module,
			Entry:  "main",
		})
	}

	pipeline, err := drv.CreateGraphicsPipeline(ctx.Device, device.GraphicsPipelineCreateInfo{
		Stages:           stages,
		VertexBindings:   vertices.Bindings,
		VertexAttributes: vertices.Attributes,
		Extent:           extent,
		DynamicViewport:  true,
		Layout:           layout,
		RenderPass:       renderPass,
	})
	if err != nil {
		p.Destroy()
		return nil, fail(ErrPipelineCreation, err, "CreateGraphicsPipeline()")
	}
	p.Handle = pipeline
	return p, nil
}

// Destroy releases the pipeline, its layout and the render pass.
// The device has to be idle.
func (p *Pipeline) Destroy() {
	if p == nil || p.ctx == nil {
		return
	}
	drv := p.ctx.Driver
	dev := p.ctx.Device
	if p.Handle != 0 {
		drv.DestroyPipeline(dev, p.Handle)
		p.Handle = 0
	}
	if p.Layout != 0 {
		drv.DestroyPipelineLayout(dev, p.Layout)
		p.Layout = 0
	}
	if p.RenderPass != 0 {
		drv.DestroyRenderPass(dev, p.RenderPass)
		p.RenderPass = 0
	}
}
