// Package shaders holds the GLSL sources for the render systems. The compiled
// SPIR-V is loaded from disk at runtime so it can be rebuilt while running.
package shaders

//go:generate glslc simple_shader.vert -o simple_shader.vert.spv
//go:generate glslc simple_shader.frag -o simple_shader.frag.spv
