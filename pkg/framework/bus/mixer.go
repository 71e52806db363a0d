package bus

import (
	"github.com/justyntemme/cityaudio/pkg/dsp"
	fdsp "github.com/justyntemme/cityaudio/pkg/framework/dsp"
)

// Mixer owns a preallocated stereo buffer per bus and folds the tree into
// the master output. It belongs to the audio context: after setup nothing
// here allocates or locks.
type Mixer struct {
	graph    *Graph
	maxBlock int
	n        int

	left   [Count][]float32
	right  [Count][]float32
	chains [Count]*fdsp.StereoChain

	// own gain applied on the previous block, ramped to avoid zipper steps
	prevGain [Count]float32
}

// NewMixer creates a mixer for blocks of up to maxBlock frames.
func NewMixer(g *Graph, maxBlock int) *Mixer {
	if maxBlock <= 0 {
		maxBlock = dsp.DefaultBlockSize
	}
	m := &Mixer{graph: g, maxBlock: maxBlock}
	for id := range m.left {
		m.left[id] = make([]float32, maxBlock)
		m.right[id] = make([]float32, maxBlock)
		m.prevGain[id] = float32(g.Own(ID(id)))
	}
	return m
}

// SetChain installs an effect chain on a bus. Call during setup only.
func (m *Mixer) SetChain(id ID, chain *fdsp.StereoChain) {
	if id.Valid() {
		m.chains[id] = chain
	}
}

// Chain returns the chain installed on a bus, if any.
func (m *Mixer) Chain(id ID) *fdsp.StereoChain {
	if !id.Valid() {
		return nil
	}
	return m.chains[id]
}

// MaxBlock returns the largest block Begin accepts.
func (m *Mixer) MaxBlock() int {
	return m.maxBlock
}

// Begin clears every bus buffer for a block of n frames. n is clamped to
// MaxBlock; callers split larger requests.
func (m *Mixer) Begin(n int) int {
	if n > m.maxBlock {
		n = m.maxBlock
	}
	if n < 0 {
		n = 0
	}
	m.n = n
	for id := range m.left {
		dsp.Clear(m.left[id][:n])
		dsp.Clear(m.right[id][:n])
	}
	return n
}

// Bus returns the current block's buffers for a bus. Sources add into them.
func (m *Mixer) Bus(id ID) (left, right []float32) {
	if !id.Valid() {
		id = Master
	}
	return m.left[id][:m.n], m.right[id][:m.n]
}

// Mix runs each bus chain, applies its own volume and folds it into its
// parent, then writes the master bus to out. Chains run before volume so
// dynamics see the same signal regardless of the user's fader.
func (m *Mixer) Mix(outL, outR []float32) {
	n := m.n
	if len(outL) < n {
		n = len(outL)
	}
	if len(outR) < n {
		n = len(outR)
	}

	for id := Count - 1; id > Master; id-- {
		l, r := m.left[id][:m.n], m.right[id][:m.n]
		m.chains[id].ProcessStereo(l, r)

		g := float32(m.graph.Own(id))
		p := parents[id]
		dsp.AddRamped(m.left[p][:m.n], l, m.prevGain[id], g)
		dsp.AddRamped(m.right[p][:m.n], r, m.prevGain[id], g)
		m.prevGain[id] = g
	}

	l, r := m.left[Master][:m.n], m.right[Master][:m.n]
	m.chains[Master].ProcessStereo(l, r)

	g := float32(m.graph.Own(Master))
	dsp.Clear(outL[:n])
	dsp.Clear(outR[:n])
	dsp.AddRamped(outL[:n], l[:n], m.prevGain[Master], g)
	dsp.AddRamped(outR[:n], r[:n], m.prevGain[Master], g)
	m.prevGain[Master] = g
}

// Reset clears chain state and snaps ramp state to current volumes.
func (m *Mixer) Reset() {
	for id := range m.chains {
		m.chains[id].Reset()
		m.prevGain[id] = float32(m.graph.Own(ID(id)))
	}
}
