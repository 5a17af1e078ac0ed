package psm

import (
	"bufio"
	"fmt"
	"io"
)

// InputSource supplies lines for scan. ReadLine blocks until a line is
// available and returns io.EOF when input is exhausted.
type InputSource interface {
	ReadLine(prompt string) (string, error)
}

// ReaderInput reads lines from an io.Reader. Prompts go to Echo when set.
type ReaderInput struct {
	sc   *bufio.Scanner
	Echo io.Writer
}

func NewReaderInput(r io.Reader) *ReaderInput {
	return &ReaderInput{sc: bufio.NewScanner(r)}
}

func (in *ReaderInput) ReadLine(prompt string) (string, error) {
	if in.Echo != nil {
		fmt.Fprint(in.Echo, prompt)
	}
	if !in.sc.Scan() {
		if err := in.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return in.sc.Text(), nil
}
