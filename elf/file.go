package elf

import (
	"bytes"
	"fmt"
	"io"
)

// Resources:
// https://refspecs.linuxfoundation.org/

type File struct {
	FileHeader

	// Sections keyed by resolved name.  Section names are only informally
	// required to be unique; when two sections resolve to the same name the
	// later one in header table order wins the map slot.
	Sections map[string]*Section

	// All sections in header table order, including any shadowed in the
	// name map.
	SectionList []*Section
}

func (file *File) GetSection(name string) (*Section, bool) {
	section, ok := file.Sections[name]
	return section, ok
}

func (file *File) Header() FileHeader {
	return file.FileHeader
}

type parser struct {
	*cursor

	FileHeader

	// Header fields consumed by the decode itself rather than exposed.
	programHeaderOffset uint64
	sectionHeaderOffset uint64
	architectureFlags   uint32
	elfHeaderSize       uint16
	programEntrySize    uint16
	numProgramEntries   uint16
	sectionEntrySize    uint16
	numSectionEntries   uint16
	nameTableIndex      uint16
}

// Parse decodes an elf object from a seekable byte source.  The source's
// current position is irrelevant; decoding always starts by seeking to
// absolute offset 0.  The decode is all or nothing: any malformed input or
// i/o failure aborts without producing a File.
func Parse(src io.ReadSeeker) (*File, error) {
	p := parser{
		cursor: newCursor(src),
	}

	return p.parse()
}

// ParseBytes decodes an elf object from an in-memory image.
func ParseBytes(content []byte) (*File, error) {
	return Parse(bytes.NewReader(content))
}

func (p *parser) parse() (*File, error) {
	// NOTE: identifier (e_ident) has no endian-ness.  We must parse identifier
	// to determine the elf file's endian-ness (including the elf header).
	err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}

	err = p.parseHeader()
	if err != nil {
		return nil, err
	}

	headers, nameOffsets, err := p.parseSectionHeaders()
	if err != nil {
		return nil, err
	}

	payloads, err := p.loadSectionContent(headers)
	if err != nil {
		return nil, err
	}

	names, err := p.resolveNames(headers, nameOffsets, payloads)
	if err != nil {
		return nil, err
	}

	return newFile(p.FileHeader, headers, names, payloads), nil
}

func (p *parser) parseIdentifier() error {
	err := p.SeekTo(0)
	if err != nil {
		return err
	}

	ident, err := p.Bytes(ElfIdentifierSize)
	if err != nil {
		return fmt.Errorf("failed to read identifier: %w", err)
	}

	if !bytes.Equal(ident[:4], IdentifierMagic) {
		return fmt.Errorf("invalid elf magic number")
	}

	p.Class = Class(ident[ClassIndex])
	p.FileHeader.DataEncoding = DataEncoding(ident[DataEncodingIndex])
	p.OperatingSystemABI = OperatingSystemABI(ident[OperatingSystemABIIndex])
	p.ABIVersion = ident[ABIVersionIndex]

	// All subsequent multi-byte reads use the identifier's data encoding.
	p.cursor.DataEncoding = p.FileHeader.DataEncoding
	return nil
}

// classWord reads one offset/address field whose width depends on class.
// 32-bit values are zero extended to 64 bits.
func (p *parser) classWord() (uint64, error) {
	switch p.Class {
	case Class32:
		value, err := p.U32()
		return uint64(value), err
	case Class64:
		return p.U64()
	default:
		return 0, fmt.Errorf("invalid elf class (%d)", byte(p.Class))
	}
}

func (p *parser) parseHeader() error {
	fileType, err := p.U16()
	if err != nil {
		return fmt.Errorf("failed to read file type: %w", err)
	}
	p.FileType = FileType(fileType)

	machine, err := p.U16()
	if err != nil {
		return fmt.Errorf("failed to read machine architecture: %w", err)
	}
	p.MachineArchitecture = MachineArchitecture(machine)

	p.FormatVersion, err = p.U32()
	if err != nil {
		return fmt.Errorf("failed to read format version: %w", err)
	}

	p.EntryPointAddress, err = p.classWord()
	if err != nil {
		return fmt.Errorf("failed to read entry point address: %w", err)
	}

	p.programHeaderOffset, err = p.classWord()
	if err != nil {
		return fmt.Errorf("failed to read program header offset: %w", err)
	}

	p.sectionHeaderOffset, err = p.classWord()
	if err != nil {
		return fmt.Errorf("failed to read section header offset: %w", err)
	}

	p.architectureFlags, err = p.U32()
	if err != nil {
		return fmt.Errorf("failed to read architecture flags: %w", err)
	}

	fields := []struct {
		name string
		dest *uint16
	}{
		{"elf header size", &p.elfHeaderSize},
		{"program header entry size", &p.programEntrySize},
		{"program header entry count", &p.numProgramEntries},
		{"section header entry size", &p.sectionEntrySize},
		{"section header entry count", &p.numSectionEntries},
		{"section name table index", &p.nameTableIndex},
	}
	for _, field := range fields {
		*field.dest, err = p.U16()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", field.name, err)
		}
	}

	return nil
}

func (p *parser) parseSectionHeaders() ([]SectionHeader, []uint32, error) {
	if p.numSectionEntries == 0 {
		return nil, nil, nil
	}

	err := p.SeekTo(p.sectionHeaderOffset)
	if err != nil {
		return nil, nil, err
	}

	headers := make([]SectionHeader, 0, p.numSectionEntries)
	nameOffsets := make([]uint32, 0, p.numSectionEntries)
	for idx := 0; idx < int(p.numSectionEntries); idx++ {
		header, nameOffset, err := p.parseSectionHeader()
		if err != nil {
			return nil, nil, fmt.Errorf(
				"failed to read section header %d: %w",
				idx,
				err)
		}

		headers = append(headers, header)
		nameOffsets = append(nameOffsets, nameOffset)
	}

	return headers, nameOffsets, nil
}

func (p *parser) parseSectionHeader() (SectionHeader, uint32, error) {
	header := SectionHeader{}

	nameOffset, err := p.U32()
	if err != nil {
		return header, 0, err
	}

	sectionType, err := p.U32()
	if err != nil {
		return header, 0, err
	}
	header.SectionType = SectionType(sectionType)

	switch p.Class {
	case Class32:
		flags, err := p.U32()
		if err != nil {
			return header, 0, err
		}
		header.SectionFlags = SectionFlags(flags)

		for _, dest := range []*uint64{&header.Address, &header.Offset, &header.Size} {
			value, err := p.U32()
			if err != nil {
				return header, 0, err
			}
			*dest = uint64(value)
		}

		header.Link, err = p.U32()
		if err != nil {
			return header, 0, err
		}

		header.Info, err = p.U32()
		if err != nil {
			return header, 0, err
		}

		for _, dest := range []*uint64{&header.AddressAlignment, &header.EntrySize} {
			value, err := p.U32()
			if err != nil {
				return header, 0, err
			}
			*dest = uint64(value)
		}
	case Class64:
		flags, err := p.U64()
		if err != nil {
			return header, 0, err
		}
		header.SectionFlags = SectionFlags(flags)

		for _, dest := range []*uint64{&header.Address, &header.Offset, &header.Size} {
			*dest, err = p.U64()
			if err != nil {
				return header, 0, err
			}
		}

		// sh_link and sh_info stay 32-bit in both classes.
		header.Link, err = p.U32()
		if err != nil {
			return header, 0, err
		}

		header.Info, err = p.U32()
		if err != nil {
			return header, 0, err
		}

		for _, dest := range []*uint64{&header.AddressAlignment, &header.EntrySize} {
			*dest, err = p.U64()
			if err != nil {
				return header, 0, err
			}
		}
	default:
		// parseHeader already rejected other class values.
		panic("should never happen")
	}

	return header, nameOffset, nil
}

func (p *parser) loadSectionContent(headers []SectionHeader) ([][]byte, error) {
	if len(headers) == 0 {
		return nil, nil
	}

	sourceLength, err := p.Length()
	if err != nil {
		return nil, err
	}

	payloads := make([][]byte, 0, len(headers))
	for idx, header := range headers {
		if header.Size == 0 {
			payloads = append(payloads, []byte{})
			continue
		}

		// Reject the section before allocating its buffer.  The size check
		// avoids computing offset+size, which can overflow.
		if header.Offset > sourceLength ||
			header.Size > sourceLength-header.Offset {

			return nil, fmt.Errorf(
				"failed to read section %d content: out of bound section"+
					" (%d + %d > %d)",
				idx,
				header.Offset,
				header.Size,
				sourceLength)
		}

		err := p.SeekTo(header.Offset)
		if err != nil {
			return nil, err
		}

		content, err := p.Bytes(header.Size)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to read section %d content: %w",
				idx,
				err)
		}

		payloads = append(payloads, content)
	}

	return payloads, nil
}

func (p *parser) resolveNames(
	headers []SectionHeader,
	nameOffsets []uint32,
	payloads [][]byte,
) (
	[]string,
	error,
) {
	if len(headers) == 0 {
		return nil, nil
	}

	if int(p.nameTableIndex) >= len(headers) {
		return nil, fmt.Errorf(
			"out of bound section name table index (%d >= %d)",
			p.nameTableIndex,
			len(headers))
	}

	table := payloads[p.nameTableIndex]

	names := make([]string, 0, len(headers))
	for _, offset := range nameOffsets {
		names = append(names, stringAt(table, offset))
	}

	return names, nil
}

func newFile(
	header FileHeader,
	headers []SectionHeader,
	names []string,
	payloads [][]byte,
) *File {
	file := &File{
		FileHeader: header,
		Sections:   map[string]*Section{},
	}

	for idx := range headers {
		headers[idx].Name = names[idx]

		section := &Section{
			SectionHeader: headers[idx],
			Content:       payloads[idx],
		}

		file.SectionList = append(file.SectionList, section)
		file.Sections[section.Name] = section
	}

	return file
}
