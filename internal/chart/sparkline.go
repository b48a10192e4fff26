package chart

import (
	"bytes"
	"fmt"
	"math"
)

// sparklineHeight is the number of text rows in the chart body
const sparklineHeight = 6

// CycleLengthSparkline renders historical cycle lengths as a multi-line
// Braille chart for the terminal, with min/max labels. Returns the empty
// string when fewer than two lengths exist.
func CycleLengthSparkline(lengths []int) string {
	if len(lengths) < 2 {
		return ""
	}

	minVal := float64(lengths[0])
	maxVal := float64(lengths[0])
	for _, v := range lengths {
		if float64(v) < minVal {
			minVal = float64(v)
		}
		if float64(v) > maxVal {
			maxVal = float64(v)
		}
	}

	// Dynamic scaling with a small buffer so extremes don't pin to the
	// chart edges
	buffer := 2.0
	minVal = math.Max(0, minVal-buffer)
	maxVal += buffer
	rangeVal := maxVal - minVal

	// Braille blocks, 4 sub-blocks of resolution per row
	blocks := []rune{'⠀', '⣀', '⣤', '⣶', '⣿'}
	subBlocksPerRow := 4.0

	rows := make([][]rune, sparklineHeight)
	width := len(lengths)
	for i := range rows {
		rows[i] = make([]rune, width)
		for j := range rows[i] {
			rows[i][j] = '⠀'
		}
	}

	for x, v := range lengths {
		normalized := (float64(v) - minVal) / rangeVal
		totalSubBlocks := normalized * sparklineHeight * subBlocksPerRow

		for y := 0; y < sparklineHeight; y++ {
			rowIdx := sparklineHeight - 1 - y
			rowStart := float64(y) * subBlocksPerRow
			rowEnd := float64(y+1) * subBlocksPerRow

			if totalSubBlocks >= rowEnd {
				rows[rowIdx][x] = '⣿'
			} else if totalSubBlocks > rowStart {
				remainder := int(math.Round(totalSubBlocks - rowStart))
				if remainder < 0 {
					remainder = 0
				}
				if remainder >= len(blocks) {
					remainder = len(blocks) - 1
				}
				rows[rowIdx][x] = blocks[remainder]
			}
		}
	}

	var result bytes.Buffer
	result.WriteString(fmt.Sprintf("Max: %.0f days\n", maxVal))
	for i := 0; i < sparklineHeight; i++ {
		result.WriteString(string(rows[i]))
		result.WriteString("\n")
	}
	result.WriteString(fmt.Sprintf("Min: %.0f days", minVal))

	return result.String()
}
