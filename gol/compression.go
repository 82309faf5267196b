package gol

import "fmt"

// Compress a row to one bit per cell
func compressRow(row []State) []byte {
	data := make([]byte, (len(row)+7)/8)
	for i, s := range row {
		data[i/8] |= byte(s) & (1 << (i % 8))
	}
	return data
}

// Decompress width cells from bit packed row data
func decompressRow(data []byte, width int) ([]State, error) {
	if len(data) != (width+7)/8 {
		return nil, fmt.Errorf("%d bytes for a row of %d cells", len(data), width)
	}
	row := make([]State, width)
	for i := range row {
		if data[i/8]&(1<<(i%8)) != 0 {
			row[i] = Alive
		}
	}
	return row, nil
}
