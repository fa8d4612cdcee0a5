package imageprocessor

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"imagecurator/imageprocessor/formats"
)

// ImageLoaderRegistry maps file extensions to loaders
type ImageLoaderRegistry struct {
	loaders       map[string]ImageLoader
	defaultLoader ImageLoader
	mutex         sync.RWMutex
}

// NewImageLoaderRegistry creates a registry with the standard and preview loaders
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	standard := NewStandardImageLoader()
	raw := NewRawImageLoader()
	for ext, format := range formats.All() {
		if raw.CanLoadFormat(format) {
			registry.RegisterLoader(ext, raw)
		} else {
			registry.RegisterLoader(ext, standard)
		}
	}
	registry.defaultLoader = standard
	return registry
}

// CanLoadFormat reports whether the loader declares format
func (l *BaseImageLoader) CanLoadFormat(format formats.FormatType) bool {
	return slices.Contains(l.SupportedFormats, format)
}

// RegisterLoader registers a loader for a file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.loaders[strings.ToLower(ext)] = loader
}

// GetLoader returns the loader for path, or the default loader
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if loader, ok := r.loaders[strings.ToLower(filepath.Ext(path))]; ok {
		return loader
	}
	return r.defaultLoader
}

// LoadImage loads an image using the appropriate registered loader
func (r *ImageLoaderRegistry) LoadImage(path string) (gocv.Mat, error) {
	loader := r.GetLoader(path)
	if loader == nil {
		return gocv.NewMat(), newImageLoadError("no suitable loader", path)
	}
	return loader.LoadImage(path)
}
