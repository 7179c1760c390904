// Package shm manages the memory-mapped pixel buffers shared with the
// compositor.
package shm

import (
	"fmt"

	"github.com/neurlang/wayland/wl"
	"golang.org/x/sys/unix"
)

// BytesPerPixel is the size of one argb8888 pixel.
const BytesPerPixel = 4

// Buffer couples a mapped anonymous memory region with the wl_buffer the
// compositor reads it through. The region and the protocol buffer outlive
// the pool and the file descriptor used to create them.
type Buffer struct {
	width  int32
	height int32
	data   []byte
	handle *wl.Buffer
}

// Create allocates a width*height*4 byte anonymous shareable region, maps it
// read/write and derives a single argb8888 wl_buffer of the given geometry
// from it. The backing pool and fd are released before returning.
func Create(shm *wl.Shm, width, height int32) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid buffer geometry %dx%d", width, height)
	}
	size := Size(width, height)

	fd, err := unix.MemfdCreate("backdrop-pixels", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("create anonymous file: %w", err)
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		return nil, fmt.Errorf("size anonymous file: %w", err)
	}

	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("map pixel region: %w", err)
	}

	pool, err := shm.CreatePool(uintptr(fd), size)
	if err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("create shm pool: %w", err)
	}

	handle, err := pool.CreateBuffer(0, width, height, width*BytesPerPixel, wl.ShmFormatArgb8888)
	if err != nil {
		_ = pool.Destroy()
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("create shm buffer: %w", err)
	}

	// The buffer keeps the pool's storage alive on the compositor side.
	if err := pool.Destroy(); err != nil {
		return nil, fmt.Errorf("release shm pool: %w", err)
	}

	return &Buffer{width: width, height: height, data: data, handle: handle}, nil
}

// Size returns the byte size of a width x height pixel region.
func Size(width, height int32) int32 {
	return width * height * BytesPerPixel
}

// Pix returns the mapped pixel bytes, row stride exactly width*4.
func (b *Buffer) Pix() []byte {
	return b.data
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int32 {
	return b.width
}

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int32 {
	return b.height
}

// Handle returns the protocol-side buffer object.
func (b *Buffer) Handle() *wl.Buffer {
	return b.handle
}

// Destroy releases the protocol buffer and unmaps the region. The caller
// must not destroy a buffer that is still the one attached to the surface.
func (b *Buffer) Destroy() {
	if b.handle != nil {
		_ = b.handle.Destroy()
		b.handle = nil
	}
	if b.data != nil {
		_ = unix.Munmap(b.data)
		b.data = nil
	}
}
