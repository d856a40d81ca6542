// Package bakeao stores the project settings of the Bake AO tool: the
// shaders that accept a baked ambient occlusion texture, the shader remap
// table used to upgrade materials, the layer interaction matrix consulted
// while baking and the static object material flag.
//
// Settings are constructed explicitly with New or loaded with Open and
// passed to whatever needs them. They reference host assets through weak
// asset.ID handles and drop handles whose asset disappeared in a lazy
// validation pass.
package bakeao
