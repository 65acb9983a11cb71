package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/lhll/swapchain"
)

type chainPhase int

const (
	chainUninitialized chainPhase = iota
	chainActive
	chainRetiring
)

func (p chainPhase) String() string {
	switch p {
	case chainUninitialized:
		return "uninitialized"
	case chainActive:
		return "active"
	case chainRetiring:
		return "retiring"
	}
	return "unknown"
}

// chainState tracks which chain is live. While retiring, active is the new
// chain and retiring is the one it replaces.
type chainState struct {
	phase    chainPhase
	active   Chain
	retiring Chain
}

func (s *chainState) current() Chain {
	if s.phase == chainUninitialized {
		panic(errors.AssertionFailedf("no swap chain has been created"))
	}
	return s.active
}

// install makes next the active chain. A replaced chain is destroyed only
// after next exists, and next must render to the same formats.
func (s *chainState) install(next Chain) error {
	switch s.phase {
	case chainUninitialized:
		*s = chainState{phase: chainActive, active: next}
		return nil
	case chainActive:
		*s = chainState{phase: chainRetiring, active: next, retiring: s.active}
	default:
		panic(errors.AssertionFailedf("swap chain install while %s", s.phase))
	}

	old := s.retiring
	old.Destroy()
	*s = chainState{phase: chainActive, active: next}

	if !old.CompareFormats(next) {
		return errors.Wrapf(swapchain.ErrFormatChanged, "image %v to %v, depth %v to %v",
			old.ImageFormat(), next.ImageFormat(), old.DepthFormat(), next.DepthFormat())
	}
	return nil
}
