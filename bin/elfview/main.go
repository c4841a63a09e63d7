package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"elfview/elf"
)

type command struct {
	name string
	run  func(*elf.File, []string) error
}

var (
	commands = []command{
		{
			name: "header",
			run:  printHeader,
		},
		{
			name: "sections",
			run:  listSections,
		},
		{
			name: "section",
			run:  printSection,
		},
		{
			name: "hexdump",
			run:  hexdumpSection,
		},
		{
			name: "strings",
			run:  printStrings,
		},
	}
)

func printHeader(file *elf.File, args []string) error {
	fmt.Println("Class:               ", file.Class)
	fmt.Println("Data encoding:       ", file.DataEncoding)
	fmt.Println("OS/ABI:              ", file.OperatingSystemABI)
	fmt.Println("ABI version:         ", file.ABIVersion)
	fmt.Println("File type:           ", file.FileType)
	fmt.Println("Machine architecture:", file.MachineArchitecture)
	fmt.Println("Format version:      ", file.FormatVersion)
	fmt.Printf("Entry point:          %#x\n", file.EntryPointAddress)
	return nil
}

func listSections(file *elf.File, args []string) error {
	for sectionIdx, section := range file.SectionList {
		fmt.Printf(
			"  [%d] %s: type=%s flags=%s size=%d\n",
			sectionIdx,
			section.Name,
			section.SectionType,
			section.SectionFlags,
			section.Size)
	}
	return nil
}

func lookupSection(file *elf.File, args []string) (*elf.Section, bool) {
	if len(args) == 0 {
		fmt.Println("section name not specified")
		return nil, false
	}

	section, ok := file.GetSection(args[0])
	if !ok {
		fmt.Println("no such section:", args[0])
		return nil, false
	}

	return section, true
}

func printSection(file *elf.File, args []string) error {
	section, ok := lookupSection(file, args)
	if !ok {
		return nil
	}

	fmt.Println("Name:     ", section.Name)
	fmt.Println("Type:     ", section.SectionType)
	fmt.Println("Flags:    ", section.SectionFlags)
	fmt.Printf("Address:   %#x\n", section.Address)
	fmt.Println("Offset:   ", section.Offset)
	fmt.Println("Size:     ", section.Size)
	fmt.Println("Link:     ", section.Link)
	fmt.Println("Info:     ", section.Info)
	fmt.Println("Alignment:", section.AddressAlignment)
	fmt.Println("Entry size:", section.EntrySize)
	return nil
}

func hexdumpSection(file *elf.File, args []string) error {
	section, ok := lookupSection(file, args)
	if !ok {
		return nil
	}

	content := section.Content
	offset := section.Offset
	for len(content) > 0 {
		line := fmt.Sprintf("0x%08x:", offset)

		size := 16
		if len(content) < size {
			size = len(content)
		}

		for _, b := range content[:size] {
			line += fmt.Sprintf(" %02x", b)
		}
		fmt.Println(line)

		content = content[size:]
		offset += uint64(size)
	}

	return nil
}

func printStrings(file *elf.File, args []string) error {
	section, ok := lookupSection(file, args)
	if !ok {
		return nil
	}

	for _, entry := range section.Strings() {
		fmt.Println(entry)
	}

	return nil
}

func main() {
	if len(os.Args) != 2 {
		fmt.Println("USAGE: elfview <file>")
		os.Exit(1)
	}

	src, err := os.Open(os.Args[1])
	if err != nil {
		panic(err)
	}
	defer src.Close()

	file, err := elf.Parse(src)
	if err != nil {
		panic(err)
	}

	fmt.Println("decoded", os.Args[1])

	rl, err := readline.New("elfview > ")
	if err != nil {
		panic(err)
	}
	defer rl.Close()

	lastLine := ""
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				break
			}
			panic(err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			line = lastLine
		}
		lastLine = line

		if line == "" {
			continue
		}

		args := strings.Split(line, " ")
		if args[0] == "" {
			fmt.Println("invalid command: (empty string)")
		}

		found := false
		for _, cmd := range commands {
			if cmd.name == args[0] {
				found = true
				err := cmd.run(file, args[1:])
				if err != nil {
					panic(err)
				}
				break
			}
		}

		if !found {
			fmt.Println("invalid command:", args[0])
		}
	}
}
