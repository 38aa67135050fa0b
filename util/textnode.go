package util

import (
	"fmt"
	"strings"
)

// UnitFile builds the text of a systemd unit file, one section at a time, in insertion order.
type UnitFile struct {
	headerLines []string
	sections    []*UnitSection
}

type UnitSection struct {
	Name  string
	lines []string
}

func NewUnitFile() *UnitFile {
	return &UnitFile{}
}

// Header adds a comment line to the top of the file.
func (uf *UnitFile) Header(str ...string) {
	for _, line := range str {
		uf.headerLines = append(uf.headerLines, "# "+line)
	}
}

// Section returns the section with the given name, creating it if needed.
func (uf *UnitFile) Section(name string) *UnitSection {
	for _, section := range uf.sections {
		if section.Name == name {
			return section
		}
	}

	res := &UnitSection{Name: name}
	uf.sections = append(uf.sections, res)
	return res
}

// Set adds a 'Key=value' directive. Repeating a key appends another directive, as systemd allows for most list settings.
func (section *UnitSection) Set(key string, value string) *UnitSection {
	section.lines = append(section.lines, key+"="+value)
	return section
}

func (section *UnitSection) SetEnv(name string, value string) *UnitSection {
	return section.Set("Environment", QuoteUnitValue(fmt.Sprintf("%s=%s", name, value)))
}

func (section *UnitSection) Comment(str string) *UnitSection {
	section.lines = append(section.lines, "# "+str)
	return section
}

func (uf *UnitFile) ToString() string {
	var sb strings.Builder

	for _, line := range uf.headerLines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	for index, section := range uf.sections {
		if index > 0 || len(uf.headerLines) > 0 {
			sb.WriteString("\n")
		}

		sb.WriteString("[" + section.Name + "]\n")
		for _, line := range section.lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// QuoteUnitValue double-quotes a value for use in Environment= or an Exec command line,
// if it contains whitespace or quotes.
func QuoteUnitValue(value string) string {
	if !strings.ContainsAny(value, " \t\"'\\") {
		return value
	}

	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	return "\"" + value + "\""
}
