package elf

import (
	"encoding/binary"
)

// imageBuilder constructs synthetic elf images for decoder tests.  The
// section name string table is generated automatically and appended as the
// last section unless omitNameTable is set.
type imageBuilder struct {
	class    Class
	encoding DataEncoding

	fileType FileType
	machine  MachineArchitecture
	entry    uint64

	sections []fixtureSection

	// Leave the image without any sections (shnum = 0).
	omitNameTable bool

	// Overrides e_shstrndx when set.
	nameTableIndex *uint16
}

type fixtureSection struct {
	name        string
	sectionType SectionType
	flags       SectionFlags
	address     uint64
	content     []byte

	// Overrides the generated sh_name value when set.
	nameOffset *uint32
}

func (builder *imageBuilder) order() binary.AppendByteOrder {
	if builder.encoding == DataEncodingTwosComplementBigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (builder *imageBuilder) put16(image []byte, value uint16) []byte {
	return builder.order().AppendUint16(image, value)
}

func (builder *imageBuilder) put32(image []byte, value uint32) []byte {
	return builder.order().AppendUint32(image, value)
}

func (builder *imageBuilder) put64(image []byte, value uint64) []byte {
	return builder.order().AppendUint64(image, value)
}

func (builder *imageBuilder) putClassWord(image []byte, value uint64) []byte {
	if builder.class == Class32 {
		return builder.put32(image, uint32(value))
	}
	return builder.put64(image, value)
}

func (builder *imageBuilder) build() []byte {
	image, _ := builder.buildWithLayout()
	return image
}

// buildWithLayout additionally returns the file offset of the section header
// table so tests can patch individual records.
func (builder *imageBuilder) buildWithLayout() ([]byte, int) {
	headerSize := Elf64HeaderSize
	entrySize := Elf64SectionHeaderEntrySize
	if builder.class == Class32 {
		headerSize = Elf32HeaderSize
		entrySize = Elf32SectionHeaderEntrySize
	}

	sections := append([]fixtureSection{}, builder.sections...)
	if !builder.omitNameTable {
		sections = append(
			sections,
			fixtureSection{
				name:        ".shstrtab",
				sectionType: SectionTypeStringTable,
			})
	}

	// Generate the name string table content.
	nameTable := []byte{0}
	nameOffsets := make([]uint32, 0, len(sections))
	for _, section := range sections {
		nameOffsets = append(nameOffsets, uint32(len(nameTable)))
		nameTable = append(nameTable, section.name...)
		nameTable = append(nameTable, 0)
	}

	if !builder.omitNameTable {
		sections[len(sections)-1].content = nameTable
	}

	// Section contents immediately follow the file header; the section
	// header table goes last.
	contentOffsets := make([]uint64, 0, len(sections))
	position := uint64(headerSize)
	for _, section := range sections {
		contentOffsets = append(contentOffsets, position)
		position += uint64(len(section.content))
	}
	sectionTableOffset := position

	nameTableIndex := uint16(len(sections) - 1)
	if builder.omitNameTable {
		nameTableIndex = 0
	}
	if builder.nameTableIndex != nil {
		nameTableIndex = *builder.nameTableIndex
	}

	// Identifier block.
	image := append([]byte{}, IdentifierMagic...)
	image = append(
		image,
		byte(builder.class),
		byte(builder.encoding),
		1, // EI_VERSION
		byte(OperatingSystemABIUnixSystemV),
		0) // EI_ABIVERSION
	for len(image) < ElfIdentifierSize {
		image = append(image, 0)
	}

	// File header.
	image = builder.put16(image, uint16(builder.fileType))
	image = builder.put16(image, uint16(builder.machine))
	image = builder.put32(image, 1) // e_version
	image = builder.putClassWord(image, builder.entry)
	image = builder.putClassWord(image, 0) // e_phoff
	image = builder.putClassWord(image, sectionTableOffset)
	image = builder.put32(image, 0) // e_flags
	image = builder.put16(image, uint16(headerSize))
	image = builder.put16(image, 0) // e_phentsize
	image = builder.put16(image, 0) // e_phnum
	image = builder.put16(image, uint16(entrySize))
	image = builder.put16(image, uint16(len(sections)))
	image = builder.put16(image, nameTableIndex)

	if len(image) != headerSize {
		panic("should never happen")
	}

	// Section contents.
	for _, section := range sections {
		image = append(image, section.content...)
	}

	// Section header table.
	for idx, section := range sections {
		nameOffset := nameOffsets[idx]
		if section.nameOffset != nil {
			nameOffset = *section.nameOffset
		}

		image = builder.put32(image, nameOffset)
		image = builder.put32(image, uint32(section.sectionType))
		if builder.class == Class32 {
			image = builder.put32(image, uint32(section.flags))
			image = builder.put32(image, uint32(section.address))
			image = builder.put32(image, uint32(contentOffsets[idx]))
			image = builder.put32(image, uint32(len(section.content)))
			image = builder.put32(image, 0) // sh_link
			image = builder.put32(image, 0) // sh_info
			image = builder.put32(image, 4) // sh_addralign
			image = builder.put32(image, 0) // sh_entsize
		} else {
			image = builder.put64(image, uint64(section.flags))
			image = builder.put64(image, section.address)
			image = builder.put64(image, contentOffsets[idx])
			image = builder.put64(image, uint64(len(section.content)))
			image = builder.put32(image, 0) // sh_link
			image = builder.put32(image, 0) // sh_info
			image = builder.put64(image, 4) // sh_addralign
			image = builder.put64(image, 0) // sh_entsize
		}
	}

	return image, int(sectionTableOffset)
}
