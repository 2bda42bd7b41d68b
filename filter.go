// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import (
	"strconv"
	"strings"
)

// Filter is a boolean predicate applied to a cycle (spec §4.12).
type Filter interface {
	Apply(c Cycle) (bool, error)
}

// AlwaysFilter matches every cycle; it is the default when no filter
// is configured.
type AlwaysFilter struct{}

// Apply always returns true.
func (AlwaysFilter) Apply(c Cycle) (bool, error) { return true, nil }

// PcFilter matches cycles whose PC equals Address.
type PcFilter struct {
	Address  uint64
	Physical bool
}

// Apply reports whether c's PC (virtual or physical, per Physical)
// equals Address.
func (f PcFilter) Apply(c Cycle) (bool, error) {
	pc, err := c.PC(f.Physical)
	if err != nil {
		return false, err
	}
	return pc == f.Address, nil
}

// MemoryAccessFilter matches cycles with a memory event whose address
// range contains Address and whose kind satisfies the load/store
// mask.
type MemoryAccessFilter struct {
	Address    uint64
	Physical   bool
	MatchLoad  bool
	MatchStore bool
}

// Apply reports whether any of c's memory events contains Address and
// matches the configured load/store mask. Instruction and Load events
// both count as "load" (spec §4.12).
func (f MemoryAccessFilter) Apply(c Cycle) (bool, error) {
	for i := 0; i < c.MemoryEventCount(); i++ {
		ev, err := c.CopyMemoryEvent(i)
		if err != nil {
			return false, err
		}

		addr := ev.VirtualAddr
		if f.Physical {
			addr = ev.PhysicalAddr
		}
		if f.Address < addr || f.Address >= addr+uint64(ev.Size) {
			continue
		}

		isLoad := MemoryAccessType(ev.AccessType) == AccessInstruction || MemoryAccessType(ev.AccessType) == AccessLoad
		isStore := MemoryAccessType(ev.AccessType) == AccessStore
		if (f.MatchLoad && isLoad) || (f.MatchStore && isStore) {
			return true, nil
		}
	}
	return false, nil
}

// ParseFilter constructs a Filter from a "<tag>:<hex-value>" string
// (spec §4.12). tag is one of P, PP, L, LP, S, SP, A, AP; a second
// letter P selects the physical address.
func ParseFilter(s string) (Filter, error) {
	tag, hexValue, found := strings.Cut(s, ":")
	if !found {
		return nil, &ParseError{Literal: s, HasLiteral: true}
	}

	value, err := strconv.ParseUint(hexValue, 16, 64)
	if err != nil {
		return nil, &ParseError{Literal: hexValue, HasLiteral: true}
	}

	physical := strings.HasSuffix(tag, "P") && tag != "P"
	base := tag
	if physical {
		base = strings.TrimSuffix(tag, "P")
	}

	switch {
	case tag == "P" || tag == "PP":
		return PcFilter{Address: value, Physical: tag == "PP"}, nil
	case base == "L":
		return MemoryAccessFilter{Address: value, Physical: physical, MatchLoad: true}, nil
	case base == "S":
		return MemoryAccessFilter{Address: value, Physical: physical, MatchStore: true}, nil
	case base == "A":
		return MemoryAccessFilter{Address: value, Physical: physical, MatchLoad: true, MatchStore: true}, nil
	default:
		return nil, &ParseError{Literal: tag, HasLiteral: true}
	}
}
