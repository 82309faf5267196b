package gol

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	aliveRune = '#'
	deadRune  = ' '
)

// ParsePattern builds a grid from rows of '#' (alive) and ' ' (dead).
// Short rows are padded with dead cells. A width or height of 0 takes the
// size of the pattern; a larger size pads the pattern on the right and bottom.
func ParsePattern(lines []string, width, height int) (*Grid, error) {
	patternWidth := 0
	for y, line := range lines {
		for x, r := range line {
			if r != aliveRune && r != deadRune {
				return nil, fmt.Errorf("%w: pattern row %d column %d: unexpected %q", ErrConfiguration, y, x, r)
			}
		}
		if len(line) > patternWidth {
			patternWidth = len(line)
		}
	}
	width, height, err := fitSize(patternWidth, len(lines), width, height)
	if err != nil {
		return nil, err
	}
	grid, err := NewGrid(width, height)
	if err != nil {
		return nil, err
	}
	for y, line := range lines {
		for x := 0; x != len(line); x++ {
			if line[x] == aliveRune {
				grid.Set(x, y, Alive)
			}
		}
	}
	return grid, nil
}

// ReadPattern parses a text pattern, one row per line.
func ReadPattern(r io.Reader, width, height int) (*Grid, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), MaxCells)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ParsePattern(lines, width, height)
}

// LoadPattern reads the initial grid from path: a PGM image if the name ends in .pgm,
// a text pattern otherwise. An empty path gives DefaultPattern.
func LoadPattern(path string, width, height int) (*Grid, error) {
	if path == "" {
		return ParsePattern(DefaultPattern, width, height)
	}
	if strings.EqualFold(filepath.Ext(path), ".pgm") {
		return ReadPgm(path, width, height)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	grid, err := ReadPattern(file, width, height)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("Pattern %s loaded: %dx%d", path, grid.Width(), grid.Height())
	return grid, nil
}

func fitSize(patternWidth, patternHeight, width, height int) (int, int, error) {
	if width == 0 {
		width = patternWidth
	}
	if height == 0 {
		height = patternHeight
	}
	if width < patternWidth || height < patternHeight {
		return 0, 0, fmt.Errorf("%w: pattern of %dx%d does not fit a %dx%d grid",
			ErrConfiguration, patternWidth, patternHeight, width, height)
	}
	return width, height, nil
}

// WritePgm writes grid as a binary PGM image into dir and returns the file path.
func WritePgm(dir string, grid *Grid, generation int) (string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%dx%dx%d.pgm", grid.Width(), grid.Height(), generation))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "P5\n%d %d\n255\n", grid.Width(), grid.Height())
	for y := 0; y != grid.Height(); y++ {
		for _, s := range grid.Row(y) {
			writer.WriteByte(byte(s))
		}
	}
	if err := writer.Flush(); err != nil {
		return "", err
	}
	if err := file.Sync(); err != nil {
		return "", err
	}
	log.Printf("File %s output done", path)
	return path, nil
}

// ReadPgm reads a binary PGM image. Any non-zero pixel is a live cell.
func ReadPgm(path string, width, height int) (*Grid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	var header [4]int
	magic, err := pgmToken(reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if magic != "P5" {
		return nil, fmt.Errorf("%s: not a pgm file", path)
	}
	for i := 1; i != len(header); i++ {
		token, err := pgmToken(reader)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if header[i], err = strconv.Atoi(token); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	imageWidth, imageHeight, maxval := header[1], header[2], header[3]
	if maxval != 255 {
		return nil, fmt.Errorf("%s: incorrect maxval/bit depth %d", path, maxval)
	}

	width, height, err = fitSize(imageWidth, imageHeight, width, height)
	if err != nil {
		return nil, err
	}
	grid, err := NewGrid(width, height)
	if err != nil {
		return nil, err
	}
	pixels := make([]byte, imageWidth)
	for y := 0; y != imageHeight; y++ {
		if _, err := io.ReadFull(reader, pixels); err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, y, err)
		}
		for x, pixel := range pixels {
			if pixel != 0 {
				grid.Set(x, y, Alive)
			}
		}
	}
	log.Printf("File %s input done", path)
	return grid, nil
}

// pgmToken reads one whitespace separated header token and the single
// whitespace byte after it. Comment lines are skipped.
func pgmToken(reader *bufio.Reader) (string, error) {
	var token []byte
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return "", err
		}
		switch {
		case b == '#' && len(token) == 0:
			if _, err := reader.ReadString('\n'); err != nil {
				return "", err
			}
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			if len(token) != 0 {
				return string(token), nil
			}
		default:
			token = append(token, b)
		}
	}
}
