package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"elfview/elf"
)

type headerDump struct {
	Class               string `yaml:"class"`
	DataEncoding        string `yaml:"data_encoding"`
	OperatingSystemABI  string `yaml:"os_abi"`
	ABIVersion          byte   `yaml:"abi_version"`
	FileType            string `yaml:"file_type"`
	MachineArchitecture string `yaml:"machine"`
	FormatVersion       uint32 `yaml:"format_version"`
	EntryPointAddress   string `yaml:"entry_point"`
}

type sectionDump struct {
	Name             string `yaml:"name"`
	SectionType      string `yaml:"type"`
	SectionFlags     string `yaml:"flags"`
	Address          string `yaml:"address"`
	Offset           uint64 `yaml:"offset"`
	Size             uint64 `yaml:"size"`
	Link             uint32 `yaml:"link"`
	Info             uint32 `yaml:"info"`
	AddressAlignment uint64 `yaml:"alignment"`
	EntrySize        uint64 `yaml:"entry_size"`
}

type fileDump struct {
	Header   headerDump    `yaml:"header"`
	Sections []sectionDump `yaml:"sections"`
}

func newFileDump(file *elf.File) fileDump {
	dump := fileDump{
		Header: headerDump{
			Class:               file.Class.String(),
			DataEncoding:        file.DataEncoding.String(),
			OperatingSystemABI:  file.OperatingSystemABI.String(),
			ABIVersion:          file.ABIVersion,
			FileType:            file.FileType.String(),
			MachineArchitecture: file.MachineArchitecture.String(),
			FormatVersion:       file.FormatVersion,
			EntryPointAddress:   fmt.Sprintf("%#x", file.EntryPointAddress),
		},
	}

	for _, section := range file.SectionList {
		dump.Sections = append(
			dump.Sections,
			sectionDump{
				Name:             section.Name,
				SectionType:      section.SectionType.String(),
				SectionFlags:     section.SectionFlags.String(),
				Address:          fmt.Sprintf("%#x", section.Address),
				Offset:           section.Offset,
				Size:             section.Size,
				Link:             section.Link,
				Info:             section.Info,
				AddressAlignment: section.AddressAlignment,
				EntrySize:        section.EntrySize,
			})
	}

	return dump
}

func main() {
	yamlOutput := false
	flag.BoolVar(&yamlOutput, "yaml", false, "print the decoded file as yaml")

	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("USAGE: print-elf [-yaml] <file>")
		os.Exit(1)
	}

	src, err := os.Open(flag.Arg(0))
	if err != nil {
		panic(err)
	}
	defer src.Close()

	file, err := elf.Parse(src)
	if err != nil {
		panic(err)
	}

	if yamlOutput {
		encoded, err := yaml.Marshal(newFileDump(file))
		if err != nil {
			panic(err)
		}

		os.Stdout.Write(encoded)
		return
	}

	fmt.Printf("Header: %v\n", file.FileHeader)

	fmt.Println("Sections:", len(file.SectionList))
	for sectionIdx, section := range file.SectionList {
		fmt.Printf(
			"  [%d] %s: type=%s flags=%s addr=%#x offset=%d size=%d"+
				" link=%d info=%d align=%d entsize=%d\n",
			sectionIdx,
			section.Name,
			section.SectionType,
			section.SectionFlags,
			section.Address,
			section.Offset,
			section.Size,
			section.Link,
			section.Info,
			section.AddressAlignment,
			section.EntrySize)

		if section.SectionType == elf.SectionTypeStringTable {
			fmt.Printf("    Number of string entries: %d\n", len(section.Strings()))
		}
	}
}
