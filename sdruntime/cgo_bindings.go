// Package sdruntime provides CGo bindings for stable-diffusion.cpp.
//
// This file contains the tag-independent wrapper functions for the
// stable-diffusion.cpp C library. When the library is not available, the
// default build uses stub implementations; build with the "sd" tag to link
// the real library.
//
// Example build with real library:
//
//	CGO_CFLAGS="-I/path/to/stable-diffusion.cpp" \
//	CGO_LDFLAGS="-L/path/to/stable-diffusion.cpp/build -lstable-diffusion" \
//	go build -tags sd
package sdruntime

// SDContext represents an opaque handle to a stable-diffusion context.
// In the real implementation, this wraps a C pointer to sd_ctx_t.
// The stub implementation uses an internal ID for tracking.
type SDContext struct {
	// id is used for stub implementation tracking
	id uint64
	// modelPath stores the path used to load this context
	modelPath string
	// valid indicates if this context is usable
	valid bool
}

// IsValid returns whether this context is valid and usable.
func (c *SDContext) IsValid() bool {
	if c == nil {
		return false
	}
	return c.valid
}

// ModelPath returns the model path used to create this context.
func (c *SDContext) ModelPath() string {
	if c == nil {
		return ""
	}
	return c.modelPath
}

// LoadModel loads an SD model and returns a context for generation.
// This is an expensive operation (seconds to minutes for large models).
func LoadModel(modelPath string) (*SDContext, error) {
	return loadModelImpl(modelPath)
}

// GenerateImage runs the diffusion process and returns PNG image data.
// This call blocks for the duration of the generation.
func GenerateImage(ctx *SDContext, params GenerateParams) (*GenerateResult, error) {
	return generateImageImpl(ctx, params)
}

// FreeContext releases the resources held by a context.
// The context is unusable afterwards.
func FreeContext(ctx *SDContext) {
	freeContextImpl(ctx)
}

// BackendInfo returns a human-readable description of the linked backend.
func BackendInfo() string {
	return backendInfoImpl()
}
