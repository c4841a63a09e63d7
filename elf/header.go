// Based on linux's man page, elf.h, golang's debug/elf package,
// and the elf 1.2 spec.
package elf

import (
	"fmt"
)

var (
	// EI_MAG0 - EI_MAG3
	IdentifierMagic = []byte{
		0x7f, // ELFMAG0
		'E',  // ELFMAG1
		'L',  // ELFMAG2
		'F',  // ELFMAG3
	}
)

const (
	ElfIdentifierSize = 16 // EI_NIDENT

	// Byte offsets into the identifier block.  The identifier version byte
	// (offset 6) is not used by the decoder.
	ClassIndex              = 4 // EI_CLASS
	DataEncodingIndex       = 5 // EI_DATA
	OperatingSystemABIIndex = 7 // EI_OSABI
	ABIVersionIndex         = 8 // EI_ABIVERSION

	Elf32HeaderSize = 52
	Elf64HeaderSize = 64

	Elf32SectionHeaderEntrySize = 40
	Elf64SectionHeaderEntrySize = 64
)

// EI_CLASS
type Class byte

const (
	ClassNone = Class(0) // ELFCLASSNONE
	Class32   = Class(1) // ELFCLASS32
	Class64   = Class(2) // ELFCLASS64
)

func (class Class) String() string {
	switch class {
	case ClassNone:
		return "ClassNone"
	case Class32:
		return "Class32"
	case Class64:
		return "Class64"
	default:
		return fmt.Sprintf("ClassUnknown(%d)", byte(class))
	}
}

// EI_DATA
type DataEncoding byte

const (
	DataEncodingNone                       = DataEncoding(0) // ELFDATANONE
	DataEncodingTwosComplementLittleEndian = DataEncoding(1) // ELFDATA2LSB
	DataEncodingTwosComplementBigEndian    = DataEncoding(2) // ELFDATA2MSB
)

func (encoding DataEncoding) String() string {
	switch encoding {
	case DataEncodingNone:
		return "DataEncodingNone"
	case DataEncodingTwosComplementLittleEndian:
		return "TwosComplementLittleEndian"
	case DataEncodingTwosComplementBigEndian:
		return "TwosComplementBigEndian"
	default:
		return fmt.Sprintf("DataEncodingUnknown(%d)", byte(encoding))
	}
}

// EI_OSABI
// NOTE: golang's debug/elf.OSABI defines a more complete list
type OperatingSystemABI byte

const (
	OperatingSystemABIUnixSystemV = OperatingSystemABI(0)  // ELFOSABI_NONE
	OperatingSystemABILinux       = OperatingSystemABI(3)  // ELFOSABI_LINUX
	OperatingSystemABIFreeBSD     = OperatingSystemABI(9)  // ELFOSABI_FREEBSD
	OperatingSystemABIOpenBSD     = OperatingSystemABI(12) // ELFOSABI_OPENBSD
)

func (osAbi OperatingSystemABI) String() string {
	switch osAbi {
	case OperatingSystemABIUnixSystemV:
		return "UnixSystemV"
	case OperatingSystemABILinux:
		return "Linux"
	case OperatingSystemABIFreeBSD:
		return "FreeBSD"
	case OperatingSystemABIOpenBSD:
		return "OpenBSD"
	default:
		return fmt.Sprintf("OperatingSystemABIUnknown(%d)", byte(osAbi))
	}
}

// e_type
type FileType uint16

const (
	FileTypeNone         = FileType(0) // ET_NONE
	FileTypeRelocatable  = FileType(1) // ET_REL
	FileTypeExecutable   = FileType(2) // ET_EXEC
	FileTypeSharedObject = FileType(3) // ET_DYN
	FileTypeCore         = FileType(4) // ET_CORE
)

func (ft FileType) String() string {
	switch ft {
	case FileTypeNone:
		return "FileTypeNone"
	case FileTypeRelocatable:
		return "Relocatable"
	case FileTypeExecutable:
		return "Executable"
	case FileTypeSharedObject:
		return "SharedObject"
	case FileTypeCore:
		return "Core"
	default:
		return fmt.Sprintf("FileTypeUnknown(%d)", uint16(ft))
	}
}

// e_machine
// NOTE: golang's debug/elf.Machine defines a more complete list of machine
// types.
type MachineArchitecture uint16

const (
	MachineArchitectureNone    = MachineArchitecture(0)   // EM_NONE
	MachineArchitectureIntel86 = MachineArchitecture(3)   // EM_386
	MachineArchitectureMIPS    = MachineArchitecture(8)   // EM_MIPS
	MachineArchitecturePowerPC = MachineArchitecture(20)  // EM_PPC
	MachineArchitectureARM     = MachineArchitecture(40)  // EM_ARM
	MachineArchitectureX86_64  = MachineArchitecture(62)  // EM_X86_64
	MachineArchitectureAArch64 = MachineArchitecture(183) // EM_AARCH64
	MachineArchitectureRISCV   = MachineArchitecture(243) // EM_RISCV
)

func (arch MachineArchitecture) String() string {
	switch arch {
	case MachineArchitectureNone:
		return "MachineArchitectureNone"
	case MachineArchitectureIntel86:
		return "i386"
	case MachineArchitectureMIPS:
		return "MIPS"
	case MachineArchitecturePowerPC:
		return "PowerPC"
	case MachineArchitectureARM:
		return "ARM"
	case MachineArchitectureX86_64:
		return "x86-64"
	case MachineArchitectureAArch64:
		return "AArch64"
	case MachineArchitectureRISCV:
		return "RISC-V"
	default:
		return fmt.Sprintf("MachineArchitectureUnknown(%d)", uint16(arch))
	}
}

type SectionType uint32

const (
	SectionTypeNull                  = SectionType(0)  // SHT_NULL
	SectionTypeProgramDefinedInfo    = SectionType(1)  // SHT_PROGBITS
	SectionTypeSymbolTable           = SectionType(2)  // SHT_SYMTAB
	SectionTypeStringTable           = SectionType(3)  // SHT_STRTAB
	SectionTypeRelocationWithAddends = SectionType(4)  // SHT_RELA
	SectionTypeSymbolHashTable       = SectionType(5)  // SHT_HASH
	SectionTypeDynamic               = SectionType(6)  // SHT_DYNAMIC
	SectionTypeNote                  = SectionType(7)  // SHT_NOTE
	SectionTypeNoSpace               = SectionType(8)  // SHT_NOBITS
	SectionTypeRelocationNoAddends   = SectionType(9)  // SHT_REL
	SectionTypeDynamicSymbolTable    = SectionType(11) // SHT_DYNSYM
)

func (stype SectionType) String() string {
	switch stype {
	case SectionTypeNull:
		return "SectionTypeNull"
	case SectionTypeProgramDefinedInfo:
		return "ProgramDefinedInfo"
	case SectionTypeSymbolTable:
		return "SymbolTable"
	case SectionTypeStringTable:
		return "StringTable"
	case SectionTypeRelocationWithAddends:
		return "RelocationWithAddends"
	case SectionTypeSymbolHashTable:
		return "SymbolHashTable"
	case SectionTypeDynamic:
		return "Dynamic"
	case SectionTypeNote:
		return "Note"
	case SectionTypeNoSpace:
		return "NoSpace"
	case SectionTypeRelocationNoAddends:
		return "RelocationNoAddends"
	case SectionTypeDynamicSymbolTable:
		return "DynamicSymbolTable"
	default:
		return fmt.Sprintf("SectionTypeUnknown(%d)", uint32(stype))
	}
}

// NOTE: 32-bit files encode section flags as a 32-bit word.  The decoder
// zero extends the value so both classes share this type.
type SectionFlags uint64

const (
	SectionContainsWritableData         = SectionFlags(0x1)   // SHF_WRITE
	SectionOccupiesMemory               = SectionFlags(0x2)   // SHF_ALLOC
	SectionContainsInstructions         = SectionFlags(0x4)   // SHF_EXECINSTR
	SectionMayBeMerged                  = SectionFlags(0x10)  // SHF_MERGE
	SectionContainsStrings              = SectionFlags(0x20)  // SHF_STRINGS
	SectionInfoHoldsSectionIndex        = SectionFlags(0x40)  // SHF_INFO_LINK
	SectionRequiresSpecialOrdering      = SectionFlags(0x80)  // SHF_LINK_ORDER
	SectionRequiresOsSpecificProcessing = SectionFlags(0x100) // SHF_OS_NONCONFORMING
	SectionIsGroupMember                = SectionFlags(0x200) // SHF_GROUP
	SectionContainsTLSData              = SectionFlags(0x400) // SHF_TLS
	SectionIsCompressed                 = SectionFlags(0x800) // SHF_COMPRESSED
)

func (flags SectionFlags) String() string {
	result := make([]byte, 11)
	for i := 0; i < 11; i++ {
		result[i] = '-'
	}

	if flags&SectionContainsWritableData != 0 {
		result[0] = 'w'
	}
	if flags&SectionOccupiesMemory != 0 {
		result[1] = 'a'
	}
	if flags&SectionContainsInstructions != 0 {
		result[2] = 'x'
	}
	if flags&SectionMayBeMerged != 0 {
		result[3] = 'm'
	}
	if flags&SectionContainsStrings != 0 {
		result[4] = 's'
	}
	if flags&SectionInfoHoldsSectionIndex != 0 {
		result[5] = 'i'
	}
	if flags&SectionRequiresSpecialOrdering != 0 {
		result[6] = 'l'
	}
	if flags&SectionRequiresOsSpecificProcessing != 0 {
		result[7] = 'o'
	}
	if flags&SectionIsGroupMember != 0 {
		result[8] = 'g'
	}
	if flags&SectionContainsTLSData != 0 {
		result[9] = 't'
	}
	if flags&SectionIsCompressed != 0 {
		result[10] = 'c'
	}

	return string(result)
}

// The decoded file header.  Field widths are class independent; values read
// from 32-bit files are zero extended.
type FileHeader struct {
	Class                      // EI_CLASS
	DataEncoding               // EI_DATA
	OperatingSystemABI         // EI_OSABI
	ABIVersion          byte   // EI_ABIVERSION
	FileType                   // e_type
	MachineArchitecture        // e_machine
	FormatVersion       uint32 // e_version
	EntryPointAddress   uint64 // e_entry
}

// The decoded section header.  Name is resolved from the section name string
// table in a second pass; sections without a usable name entry keep "".
type SectionHeader struct {
	Name             string // resolved from sh_name
	SectionType             // sh_type
	SectionFlags            // sh_flags
	Address          uint64 // sh_addr
	Offset           uint64 // sh_offset
	Size             uint64 // sh_size
	Link             uint32 // sh_link
	Info             uint32 // sh_info
	AddressAlignment uint64 // sh_addralign
	EntrySize        uint64 // sh_entsize
}
