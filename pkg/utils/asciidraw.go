package utils

import (
	"errors"
	"fmt"
	"strings"
)

var ErrAsciiFrameLayout = errors.New("invalid ascii frame layout")

type AsciiFrameField struct {
	// Name of the field
	Name string

	// Units within the frame the field begins from
	Begin int

	// Field width
	Width int
}

// The last unit within the frame used by this field
func (f *AsciiFrameField) TopUnit() int {
	return f.PastTopUnit() - 1
}

// The first unit within the frame used by the next field
func (f *AsciiFrameField) PastTopUnit() int {
	return f.Begin + f.Width
}

type AsciiFrameUnitLayout uint

const (
	// Units increase left to right
	AsciiFrameUnitLayout_LeftToRight AsciiFrameUnitLayout = iota
	// Units increase right to left
	AsciiFrameUnitLayout_RightToLeft
)

type asciiFrame struct {
	fields     []AsciiFrameField
	frameWidth int
	unit       string
	leftpad    int
	layout     AsciiFrameUnitLayout
}

func (f *asciiFrame) TopUnit() int {
	return f.frameWidth - 1
}

// Writes text centered within length chars, filling the remaining space with filler
func writeCentered(text string, decorationLength int, filler string, length int, builder *strings.Builder) {
	free := length - len(text) - decorationLength
	if free < 0 {
		free = 0
	}

	builder.WriteString(strings.Repeat(filler, free/2))
	builder.WriteString(text)
	builder.WriteString(strings.Repeat(filler, free-free/2))
}

func (f *asciiFrame) Draw() string {
	const (
		bodySplitter   = "|"
		borderSplitter = "+"
		borderBody     = "-"
		arrowTipLeft   = "<-"
		arrowBody      = "-"
		arrowTipRight  = "->"
	)

	type entry struct {
		index     string
		name      string
		width     string
		minLength int
	}

	entries := make([]entry, len(f.fields))

	for i := range entries {
		field := &f.fields[i]
		index := field.Begin

		if f.layout == AsciiFrameUnitLayout_RightToLeft {
			field = &f.fields[len(f.fields)-i-1]
			index = field.TopUnit()
		}

		e := &entries[i]
		e.index = fmt.Sprint(index)
		e.name = fmt.Sprintf(" %v ", field.Name)
		e.width = fmt.Sprintf(" %v %v ", field.Width, f.unit)
		e.minLength = Max([]int{len(e.index), len(e.name), len(arrowTipLeft) + len(e.width) + len(arrowTipRight)})
	}

	rows := make([]strings.Builder, 5)
	indices, header, body, footer, widths := &rows[0], &rows[1], &rows[2], &rows[3], &rows[4]

	for i := range rows {
		rows[i].WriteString(strings.Repeat(" ", f.leftpad))
	}

	for _, e := range entries {
		indices.WriteString(e.index)
		indices.WriteString(strings.Repeat(" ", e.minLength-len(e.index)+1))
		header.WriteString(borderSplitter)
		header.WriteString(strings.Repeat(borderBody, e.minLength))
		body.WriteString(bodySplitter)
		writeCentered(e.name, 0, " ", e.minLength, body)
		footer.WriteString(borderSplitter)
		footer.WriteString(strings.Repeat(borderBody, e.minLength))
		widths.WriteString(" ")
		widths.WriteString(arrowTipLeft)
		writeCentered(e.width, len(arrowTipLeft)+len(arrowTipRight), arrowBody, e.minLength, widths)
		widths.WriteString(arrowTipRight)
	}

	if f.layout == AsciiFrameUnitLayout_LeftToRight {
		indices.WriteString(fmt.Sprint(f.TopUnit()))
	} else {
		indices.WriteString("0")
	}

	header.WriteString(borderSplitter)
	body.WriteString(bodySplitter)
	footer.WriteString(borderSplitter)

	var result strings.Builder

	for i := range rows {
		result.WriteString(strings.TrimRight(rows[i].String(), " "))
		result.WriteString("\n")
	}

	return result.String()
}

func fillAsciiFrameGaps(fields []AsciiFrameField, frameWidth int) ([]AsciiFrameField, error) {
	result := make([]AsciiFrameField, 0, len(fields))
	currentUnit := 0

	for _, field := range fields {
		if field.Begin > currentUnit {
			result = append(result, AsciiFrameField{
				Name:  "(unused)",
				Begin: currentUnit,
				Width: field.Begin - currentUnit,
			})
		} else if field.Begin < currentUnit {
			return nil, MakeError(ErrAsciiFrameLayout, "field '%v' at unit %v overlaps the previous field, fields must be sorted by position", field.Name, field.Begin)
		}

		result = append(result, field)

		currentUnit = field.PastTopUnit()
	}

	if currentUnit < frameWidth {
		result = append(result, AsciiFrameField{
			Name:  "(unused)",
			Begin: currentUnit,
			Width: frameWidth - currentUnit,
		})
	}

	return result, nil
}

// Prints an ascii diagram of a binary frame composed of contiguous fields of different unit lenghts
func AsciiFrame(fields []AsciiFrameField, frameWidth int, unit string, layout AsciiFrameUnitLayout, leftpad int) (string, error) {
	allFields, err := fillAsciiFrameGaps(fields, frameWidth)
	if err != nil {
		return "", err
	}

	if len(allFields) == 0 {
		return "", MakeError(ErrAsciiFrameLayout, "empty frame")
	}

	frame := asciiFrame{
		fields:     allFields,
		frameWidth: allFields[len(allFields)-1].PastTopUnit(),
		unit:       unit,
		leftpad:    leftpad,
		layout:     layout,
	}

	return frame.Draw(), nil
}
