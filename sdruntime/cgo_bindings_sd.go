//go:build sd && cgo && !stub

// Real CGo implementation of stable-diffusion.cpp bindings.
// Build with: CGO_ENABLED=1 go build -tags sd
//
// Prerequisites:
//  1. stable-diffusion.cpp compiled as a shared library
//  2. CGO_CFLAGS set to include the header path
//  3. CGO_LDFLAGS set to link the library
package sdruntime

/*
#cgo CFLAGS: -I${SRCDIR}/../vendor/stable-diffusion.cpp
#cgo LDFLAGS: -L${SRCDIR}/../vendor/stable-diffusion.cpp/build -lstable-diffusion

#include <stdlib.h>
#include <stdint.h>

typedef void sd_ctx_t;

extern sd_ctx_t* sd_ctx_create(const char* model_path, int n_threads);
extern void sd_ctx_free(sd_ctx_t* ctx);
extern uint8_t* txt2img(sd_ctx_t* ctx, const char* prompt, const char* negative_prompt,
                        int width, int height, int steps, float cfg_scale, int64_t seed,
                        int* out_width, int* out_height);
extern void sd_free_image(uint8_t* img);
extern const char* sd_get_backend_info();
*/
import "C"

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// sdContextCounter generates unique IDs for contexts
var sdContextCounter uint64

// contextMap stores the mapping from SDContext.id to the C context pointer.
var contextMap sync.Map // map[uint64]*C.sd_ctx_t

// loadModelImpl is the real CGo implementation of LoadModel.
func loadModelImpl(modelPath string) (*SDContext, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
	} else if err != nil {
		return nil, fmt.Errorf("%w: unable to access %s: %v", ErrModelLoadFailed, modelPath, err)
	}

	cModelPath := C.CString(modelPath)
	defer C.free(unsafe.Pointer(cModelPath))

	cCtx := C.sd_ctx_create(cModelPath, C.int(runtime.NumCPU()))
	if cCtx == nil {
		return nil, fmt.Errorf("%w: C library returned null context", ErrModelLoadFailed)
	}

	id := atomic.AddUint64(&sdContextCounter, 1)
	contextMap.Store(id, cCtx)

	return &SDContext{
		id:        id,
		modelPath: modelPath,
		valid:     true,
	}, nil
}

// generateImageImpl is the real CGo implementation of GenerateImage.
func generateImageImpl(ctx *SDContext, params GenerateParams) (*GenerateResult, error) {
	if ctx == nil || !ctx.valid {
		return nil, fmt.Errorf("%w: context is nil or invalid", ErrGenerationFailed)
	}

	stored, ok := contextMap.Load(ctx.id)
	if !ok {
		return nil, fmt.Errorf("%w: no valid C context found", ErrGenerationFailed)
	}
	cCtx := stored.(*C.sd_ctx_t)

	cPrompt := C.CString(params.Prompt)
	defer C.free(unsafe.Pointer(cPrompt))

	cNegPrompt := C.CString(params.NegativePrompt)
	defer C.free(unsafe.Pointer(cNegPrompt))

	seed := params.Seed
	if seed < 0 {
		seed = RandomSeed()
	}

	var outWidth, outHeight C.int
	imgPtr := C.txt2img(
		cCtx,
		cPrompt,
		cNegPrompt,
		C.int(params.Width),
		C.int(params.Height),
		C.int(params.Steps),
		C.float(params.GuidanceScale),
		C.int64_t(seed),
		&outWidth,
		&outHeight,
	)
	if imgPtr == nil {
		return nil, fmt.Errorf("%w: txt2img returned null", ErrGenerationFailed)
	}
	defer C.sd_free_image(imgPtr)

	// The library returns raw RGBA pixels at its actual output size
	imgSize := int(outWidth) * int(outHeight) * 4
	pixels := C.GoBytes(unsafe.Pointer(imgPtr), C.int(imgSize))

	pngData, err := EncodeToPNG(pixels, int(outWidth), int(outHeight))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode PNG: %v", ErrGenerationFailed, err)
	}

	return &GenerateResult{
		ImageData: pngData,
		Width:     int(outWidth),
		Height:    int(outHeight),
		Seed:      seed,
	}, nil
}

// freeContextImpl is the real CGo implementation of FreeContext.
func freeContextImpl(ctx *SDContext) {
	if ctx == nil {
		return
	}

	if stored, ok := contextMap.LoadAndDelete(ctx.id); ok {
		C.sd_ctx_free(stored.(*C.sd_ctx_t))
	}
	ctx.valid = false
}

// backendInfoImpl returns backend info from the C library.
func backendInfoImpl() string {
	cInfo := C.sd_get_backend_info()
	if cInfo != nil {
		return C.GoString(cInfo)
	}
	return "sd (stable-diffusion.cpp)"
}
