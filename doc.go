// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gudaprim provides data-parallel primitives (exclusive scan,
// stream compaction and radix sort) on top of a small CUDA-shaped device
// runtime that executes on the CPU.
//
// The root package holds the runtime: a Context owning device memory and
// streams, kernel launches over a grid of blocks, events and timers. The
// algorithms live in subpackages, one per variant:
//
//   - sequential: single-threaded reference scan and compaction
//   - naive: doubling-distance parallel scan, O(n log n) work
//   - efficient: balanced-tree (up-sweep/down-sweep) scan and compaction
//   - radix: least-significant-bit-first split radix sort
//   - reference: scan delegated to the pargo parallel library
//
// Example usage:
//
//	ctx, _ := gudaprim.NewContext(gudaprim.Config{})
//	defer ctx.Destroy()
//
//	stream, _ := ctx.CreateStream()
//	d_a, _ := ctx.Malloc(n)
//	defer ctx.Free(d_a)
//
//	stream.Memcpy(d_a, h_a, n, gudaprim.MemcpyHostToDevice)
//	grid, block := ctx.GridFor(n)
//	stream.Launch("fill", myKernel, grid, block)
//	stream.Synchronize()
package gudaprim
