package radfield

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wzqhbustb/radfield/storage/dtype"
	lerrors "github.com/wzqhbustb/radfield/storage/errors"
	"github.com/wzqhbustb/radfield/storage/format"
	"github.com/wzqhbustb/radfield/storage/vec"
)

// Channel groups the layers recorded for one source or interaction type,
// e.g. "scattering" or "direct".
type Channel struct {
	name   string
	counts vec.UVec3
	config *Config

	mu     sync.RWMutex
	layers []*Layer
	byName map[string]*Layer
}

func newChannel(name string, counts vec.UVec3, config *Config) *Channel {
	return &Channel{
		name:   name,
		counts: counts,
		config: config,
		byName: make(map[string]*Layer),
	}
}

// Name returns the channel name
func (c *Channel) Name() string { return c.name }

// AddLayer adds a zeroed layer storing one element of kind dt per voxel.
// Histogram layers need a bin count; use AddHistogramLayer for them.
func (c *Channel) AddLayer(name, unit string, dt dtype.DType) (*Layer, error) {
	if dt == dtype.Hist {
		return nil, wrapError("AddLayer", c.name+"/"+name, ErrHistogramLayer)
	}
	return c.addLayer(name, unit, dt, 1)
}

// AddHistogramLayer adds a zeroed layer holding bins float32 weights per voxel
func (c *Channel) AddHistogramLayer(name, unit string, bins uint32) (*Layer, error) {
	if bins == 0 || bins > format.MaxHistogramBins {
		return nil, wrapError("AddHistogramLayer", c.name+"/"+name,
			lerrors.InvalidArg("add_histogram_layer", fmt.Sprintf("invalid bin count %d", bins)))
	}
	return c.addLayer(name, unit, dtype.Hist, bins)
}

func (c *Channel) addLayer(name, unit string, dt dtype.DType, bins uint32) (*Layer, error) {
	path := c.name + "/" + name
	if name == "" {
		return nil, wrapError("AddLayer", path, lerrors.InvalidArg("add_layer", "empty layer name"))
	}

	l, err := newLayer(name, unit, dt, bins, c.counts)
	if err != nil {
		return nil, wrapError("AddLayer", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byName[name]; exists {
		return nil, wrapError("AddLayer", path, ErrLayerExists)
	}
	c.attachLocked(l)

	c.config.logger().Debug("layer added",
		zap.String("channel", c.name),
		zap.String("layer", name),
		zap.Stringer("dtype", dt),
		zap.Uint32("bins", bins))
	return l, nil
}

func (c *Channel) attachLocked(l *Layer) {
	c.layers = append(c.layers, l)
	c.byName[l.name] = l
}

// Layer returns a layer by name
func (c *Channel) Layer(name string) (*Layer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	l, ok := c.byName[name]
	if !ok {
		return nil, lerrors.LayerNotFound(c.name, name, c.layerNamesLocked())
	}
	return l, nil
}

// HasLayer reports whether the channel holds a layer called name
func (c *Channel) HasLayer(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byName[name]
	return ok
}

// Layers returns the layers in insertion order
func (c *Channel) Layers() []*Layer {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Layer, len(c.layers))
	copy(out, c.layers)
	return out
}

// LayerNames returns the layer names in insertion order
func (c *Channel) LayerNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.layerNamesLocked()
}

func (c *Channel) layerNamesLocked() []string {
	names := make([]string, len(c.layers))
	for i, l := range c.layers {
		names[i] = l.name
	}
	return names
}
