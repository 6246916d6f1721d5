package memory

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-cps/cps/addr"
	"github.com/valerio/go-cps/cps/bit"
)

// RegImage is a full copy of the board register file.
type RegImage [addr.RegisterFileSize]byte

// Word returns the big-endian word at the given offset of the image.
func (r *RegImage) Word(address uint16) uint16 {
	a := wordAddress(address, addr.RegisterFileSize)
	return bit.BigEndian(r[a:])
}

// AuxImage is a copy of the auxiliary register block.
type AuxImage [addr.AuxSize]byte

// WordReader is the read side of a big-endian word addressed register block.
type WordReader interface {
	Read16(address uint16) uint16
}

// RegisterFile is the byte addressable device register block written by the
// main processor. Addresses wrap around the block size.
type RegisterFile struct {
	regs RegImage
}

// NewRegisterFile returns a zeroed register file.
func NewRegisterFile() *RegisterFile {
	return &RegisterFile{}
}

// Read returns the byte at address.
func (r *RegisterFile) Read(address uint16) byte {
	return r.regs[address%addr.RegisterFileSize]
}

// Write sets the byte at address.
func (r *RegisterFile) Write(address uint16, value byte) {
	r.regs[address%addr.RegisterFileSize] = value
}

// Read16 returns the big-endian word at address. The low address bit is ignored.
func (r *RegisterFile) Read16(address uint16) uint16 {
	a := wordAddress(address, addr.RegisterFileSize)
	return bit.BigEndian(r.regs[a:])
}

// Write16 stores a big-endian word at address. The low address bit is ignored.
func (r *RegisterFile) Write16(address uint16, value uint16) {
	a := wordAddress(address, addr.RegisterFileSize)
	bit.PutBigEndian(r.regs[a:], value)
}

// Image returns a copy of the whole register file.
func (r *RegisterFile) Image() RegImage {
	return r.regs
}

// Clear zeroes the register file.
func (r *RegisterFile) Clear() {
	r.regs = RegImage{}
}

// Dump logs the interrupt control words at debug level.
func (r *RegisterFile) Dump() {
	slog.Debug("Register file",
		"control", fmt.Sprintf("0x%04X", r.Read16(addr.Control)),
		"primary", fmt.Sprintf("0x%04X", r.Read16(addr.PrimaryLine)),
		"secondary", fmt.Sprintf("0x%04X", r.Read16(addr.SecondaryLine)))
}

// AuxBlock is the small secondary register block copied verbatim into every
// raster snapshot.
type AuxBlock struct {
	regs AuxImage
}

// NewAuxBlock returns a zeroed auxiliary block.
func NewAuxBlock() *AuxBlock {
	return &AuxBlock{}
}

func (a *AuxBlock) Read(address uint16) byte {
	return a.regs[address%addr.AuxSize]
}

func (a *AuxBlock) Write(address uint16, value byte) {
	a.regs[address%addr.AuxSize] = value
}

// Read16 returns the big-endian word at address.
func (a *AuxBlock) Read16(address uint16) uint16 {
	w := wordAddress(address, addr.AuxSize)
	return bit.BigEndian(a.regs[w:])
}

// Write16 stores a big-endian word at address.
func (a *AuxBlock) Write16(address uint16, value uint16) {
	w := wordAddress(address, addr.AuxSize)
	bit.PutBigEndian(a.regs[w:], value)
}

// Image returns a copy of the auxiliary block.
func (a *AuxBlock) Image() AuxImage {
	return a.regs
}

// Clear zeroes the auxiliary block.
func (a *AuxBlock) Clear() {
	a.regs = AuxImage{}
}

func wordAddress(address uint16, size int) int {
	return int(address&^1) % size
}
