package gudaprim

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Launch executes fn over grid×block threads on the stream. The launch is
// asynchronous: it returns once the work is queued, and the first
// execution error surfaces from Synchronize.
func (s *Stream) Launch(name string, fn KernelFunc, grid, block Dim3) error {
	return s.launchInternal(name, fn, grid, block)
}

// LaunchKernel executes a Kernel on the stream
func (s *Stream) LaunchKernel(name string, kernel Kernel, grid, block Dim3) error {
	return s.launchInternal(name, kernel.Execute, grid, block)
}

// launchInternal implements the core kernel execution logic
func (s *Stream) launchInternal(
	name string,
	kernelFunc func(ThreadID),
	grid, block Dim3,
) error {
	if !grid.valid() || !block.valid() {
		return NewInvalidArgError(name, fmt.Sprintf("invalid launch dimensions grid=%v block=%v", grid, block))
	}

	// Calculate total work items
	gridSize := grid.Size()
	blockSize := block.Size()
	if blockSize > MaxThreadsPerBlock {
		return NewInvalidArgError(name, fmt.Sprintf("block of %d threads exceeds %d", blockSize, MaxThreadsPerBlock))
	}

	// Submit an empty task to maintain stream ordering
	if gridSize == 0 || blockSize == 0 {
		return s.submit(task{fn: func() error { return nil }})
	}

	// Each worker processes a contiguous run of blocks
	numWorkers := min(s.ctx.cfg.Workers, gridSize)
	blocksPerWorker := (gridSize + numWorkers - 1) / numWorkers

	s.ctx.log.Debug("launch",
		"kernel", name,
		"stream", s.id,
		"grid", gridSize,
		"block", blockSize,
		"workers", numWorkers)

	return s.submit(task{fn: func() error {
		var g errgroup.Group
		for workerID := 0; workerID < numWorkers; workerID++ {
			startBlock := workerID * blocksPerWorker
			endBlock := min(startBlock+blocksPerWorker, gridSize)
			if startBlock >= endBlock {
				continue
			}
			g.Go(func() error {
				return runBlocks(name, kernelFunc, grid, block, startBlock, endBlock)
			})
		}
		return g.Wait()
	}})
}

// runBlocks executes every thread of blocks [startBlock, endBlock).
// Threads within a block run sequentially on one goroutine, which keeps a
// block's working set in that core's cache.
func runBlocks(name string, kernelFunc func(ThreadID), grid, block Dim3, startBlock, endBlock int) (err error) {
	blockID := startBlock
	defer func() {
		if r := recover(); r != nil {
			err = &Error{
				Type:    ErrTypeExecution,
				Op:      "Kernel",
				Message: "kernel execution failed",
				Err:     fmt.Errorf("%s: block %d: %v", name, blockID, r),
			}
		}
	}()

	blockSize := block.Size()
	flat := block.Y == 1 && block.Z == 1
	for ; blockID < endBlock; blockID++ {
		tid := ThreadID{
			BlockIdx: linearTo3D(blockID, grid),
			BlockDim: block,
			GridDim:  grid,
		}
		for threadID := 0; threadID < blockSize; threadID++ {
			if flat {
				tid.ThreadIdx = Dim3{X: threadID}
			} else {
				tid.ThreadIdx = linearTo3D(threadID, block)
			}
			kernelFunc(tid)
		}
	}
	return nil
}

// linearTo3D converts a linear index to 3D coordinates
func linearTo3D(linear int, dim Dim3) Dim3 {
	z := linear / (dim.X * dim.Y)
	y := (linear % (dim.X * dim.Y)) / dim.X
	x := linear % dim.X
	return Dim3{X: x, Y: y, Z: z}
}
