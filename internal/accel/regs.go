package accel

// Register offsets, relative to the accelerator base address.
const (
	RegKey0 uint32 = 0x00
	RegKey1 uint32 = 0x04
	RegKey2 uint32 = 0x08
	RegKey3 uint32 = 0x0C
	RegPT0  uint32 = 0x10
	RegPT1  uint32 = 0x14
	RegPT2  uint32 = 0x18
	RegPT3  uint32 = 0x1C
	RegCT0  uint32 = 0x20
	RegCT1  uint32 = 0x24
	RegCT2  uint32 = 0x28
	RegCT3  uint32 = 0x2C
	RegCtrl uint32 = 0x30
)

// Control register bits. Writes command the accelerator, reads report
// status through the same offset.
const (
	CtrlStart     uint32 = 1 << 0
	CtrlClearDone uint32 = 1 << 1
	CtrlNotifyEn  uint32 = 1 << 2

	StatusBusy     uint32 = 1 << 0
	StatusDone     uint32 = 1 << 1
	StatusNotifyEn uint32 = 1 << 2
)

// Registers is the accelerator's addressable register interface. The
// hardware exposes no error path, so accesses cannot fail.
type Registers interface {
	ReadWord(offset uint32) uint32
	WriteWord(offset uint32, value uint32)
}
