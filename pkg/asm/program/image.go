// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package program

// Image is a sparse byte image.  Writes may land anywhere in the 64-bit
// address space; unwritten bytes read as zero.  The image tracks the bounds
// of everything written so a loader can extract a contiguous slice.
type Image struct {
	bytes map[uint64]byte
	lo    uint64
	hi    uint64 // exclusive
}

// NewImage constructs a new, empty image.
func NewImage() *Image {
	return &Image{bytes: make(map[uint64]byte)}
}

// Write places a single byte at the given address.
func (p *Image) Write(addr uint64, b byte) {
	if len(p.bytes) == 0 {
		p.lo, p.hi = addr, addr+1
	} else {
		p.lo = min(p.lo, addr)
		p.hi = max(p.hi, addr+1)
	}
	//
	p.bytes[addr] = b
}

// Read returns the byte at the given address, or zero if never written.
func (p *Image) Read(addr uint64) byte {
	return p.bytes[addr]
}

// Len returns the number of bytes explicitly written.
func (p *Image) Len() int {
	return len(p.bytes)
}

// Bounds returns the [lo, hi) address range covered by writes.  An empty
// image has bounds (0, 0).
func (p *Image) Bounds() (uint64, uint64) {
	return p.lo, p.hi
}

// Bytes extracts the contiguous slice [from, to), with unwritten bytes
// filled in as zero.
func (p *Image) Bytes(from, to uint64) []byte {
	out := make([]byte, to-from)
	//
	for i := range out {
		out[i] = p.bytes[from+uint64(i)]
	}
	//
	return out
}
