package ocr

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"gocv.io/x/gocv"
)

// execLine is the optional structured output of an external recognizer:
// one JSON object per stdout line.
type execLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Height     int     `json:"height"`
}

type execRunner struct {
	command string
	args    []string
}

// NewExec creates an engine that runs an external OCR program with the
// image path appended to args. Each stdout line is either a JSON object
// {"text","confidence","height"} or plain text (confidence 1).
func NewExec(command string, args ...string) (*Engine, error) {
	if command == "" {
		return nil, errors.New("no OCR command configured")
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("OCR command not found: %w", err)
	}
	r := &execRunner{command: path, args: args}
	return &Engine{
		kind: KindExec,
		name: "exec (" + command + ")",
		read: r.read,
	}, nil
}

func (r *execRunner) read(img gocv.Mat, opts Options) ([]Line, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	f, err := os.CreateTemp("", "shot-ocr-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp image: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(buf.GetBytes()); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write temp image: %w", err)
	}
	f.Close()

	args := append(append([]string{}, r.args...), f.Name())
	cmd := exec.Command(r.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("OCR command failed: %v, output: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseExecOutput(out, opts), nil
}

func parseExecOutput(out []byte, opts Options) []Line {
	var lines []Line
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var l execLine
		if strings.HasPrefix(raw, "{") && json.Unmarshal([]byte(raw), &l) == nil {
			lines = append(lines, Line{Text: l.Text, Confidence: l.Confidence, Height: l.Height})
			continue
		}
		if opts.Digits {
			raw = keepDigits(raw)
		}
		lines = append(lines, Line{Text: raw, Confidence: 1})
	}
	return lines
}

func keepDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(DigitChars, r) || r == ' ' {
			return r
		}
		return -1
	}, s)
}
