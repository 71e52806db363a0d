// Package dsp provides the stereo effect chains installed on mix buses.
package dsp

import (
	"errors"
	"fmt"
)

// StereoProcessor represents a stereo DSP processor.
type StereoProcessor interface {
	// ProcessStereo processes stereo audio in-place
	ProcessStereo(left, right []float32)

	// Reset resets the processor state
	Reset()
}

// StereoFunc allows using a function as a StereoProcessor.
type StereoFunc func(left, right []float32)

// ProcessStereo calls f.
func (f StereoFunc) ProcessStereo(left, right []float32) {
	f(left, right)
}

// Reset is a no-op for function processors.
func (f StereoFunc) Reset() {}

// StereoChain represents a chain of stereo DSP processors. The processor
// list is fixed once the chain is built, so the audio callback can walk it
// without synchronisation.
type StereoChain struct {
	processors []StereoProcessor
	name       string
}

// Name returns the chain name.
func (c *StereoChain) Name() string {
	return c.name
}

// ProcessStereo processes stereo audio through the chain.
func (c *StereoChain) ProcessStereo(left, right []float32) {
	if c == nil {
		return
	}
	for _, processor := range c.processors {
		processor.ProcessStereo(left, right)
	}
}

// Reset resets all processors in the chain.
func (c *StereoChain) Reset() {
	if c == nil {
		return
	}
	for _, processor := range c.processors {
		processor.Reset()
	}
}

// Len returns the number of processors in the chain.
func (c *StereoChain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.processors)
}

// StereoBuilder provides a fluent API for building stereo chains.
type StereoBuilder struct {
	chain  *StereoChain
	errors []error
}

// NewStereoBuilder creates a new stereo chain builder.
func NewStereoBuilder(name string) *StereoBuilder {
	return &StereoBuilder{
		chain: &StereoChain{name: name},
	}
}

// WithProcessor adds a processor to the chain.
func (b *StereoBuilder) WithProcessor(processor StereoProcessor) *StereoBuilder {
	if processor == nil {
		b.errors = append(b.errors, fmt.Errorf("%s: processor cannot be nil", b.chain.name))
		return b
	}
	b.chain.processors = append(b.chain.processors, processor)
	return b
}

// Build returns the chain or the accumulated errors.
func (b *StereoBuilder) Build() (*StereoChain, error) {
	if len(b.errors) > 0 {
		return nil, errors.Join(b.errors...)
	}
	return b.chain, nil
}
