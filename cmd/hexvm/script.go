package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// command is one parsed script line: "<pid> <op> args..."
type command struct {
	line   int
	pid    uint32
	op     string
	rgid   int
	size   uint32
	offset uint32
	value  byte
	text   string
}

// argument count per op, not counting pid and op
var opArgs = map[string]int{
	"alloc":    2, // rg size
	"free":     1, // rg
	"write":    3, // rg off val
	"read":     2, // rg off
	"writestr": 2, // rg text...
	"readstr":  1, // rg
	"dump":     0,
	"exit":     0,
}

// parseScript reads a workload script. Blank lines and lines starting with
// '#' are skipped.
func parseScript(r io.Reader) ([]command, error) {
	var cmds []command

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cmd, err := parseLine(lineNo, line)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	return cmds, nil
}

func parseLine(lineNo int, line string) (command, error) {
	fields, rest := splitFields(line, 3)
	if len(fields) < 2 {
		return command{}, fmt.Errorf("line %d: expected \"<pid> <op> args\"", lineNo)
	}

	pid, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return command{}, fmt.Errorf("line %d: invalid pid %q", lineNo, fields[0])
	}

	cmd := command{line: lineNo, pid: uint32(pid), op: strings.ToLower(fields[1])}
	want, ok := opArgs[cmd.op]
	if !ok {
		return command{}, fmt.Errorf("line %d: unknown op %q", lineNo, fields[1])
	}

	var args []string
	if cmd.op == "writestr" {
		if len(fields) < 3 || rest == "" {
			return command{}, fmt.Errorf("line %d: writestr needs a region and a text", lineNo)
		}
		args = []string{fields[2]}
		cmd.text = rest
	} else {
		args = strings.Fields(strings.Join(fields[2:], " ") + " " + rest)
		if len(args) != want {
			return command{}, fmt.Errorf("line %d: %s takes %d arguments, got %d", lineNo, cmd.op, want, len(args))
		}
	}

	if want > 0 {
		rgid, err := strconv.Atoi(args[0])
		if err != nil {
			return command{}, fmt.Errorf("line %d: invalid region %q", lineNo, args[0])
		}
		cmd.rgid = rgid
	}

	switch cmd.op {
	case "alloc":
		if cmd.size, err = parseUint32(args[1]); err != nil {
			return command{}, fmt.Errorf("line %d: invalid size: %w", lineNo, err)
		}
	case "read", "write":
		if cmd.offset, err = parseUint32(args[1]); err != nil {
			return command{}, fmt.Errorf("line %d: invalid offset: %w", lineNo, err)
		}
	}

	if cmd.op == "write" {
		v, err := strconv.ParseUint(args[2], 0, 8)
		if err != nil {
			return command{}, fmt.Errorf("line %d: invalid byte value %q", lineNo, args[2])
		}
		cmd.value = byte(v)
	}

	return cmd, nil
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// splitFields splits off at most n leading whitespace separated fields and
// returns them with the trimmed remainder of the line.
func splitFields(line string, n int) ([]string, string) {
	var fields []string
	rest := strings.TrimSpace(line)

	for len(fields) < n && rest != "" {
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			fields = append(fields, rest)
			rest = ""
			break
		}
		fields = append(fields, rest[:end])
		rest = strings.TrimSpace(rest[end:])
	}

	return fields, rest
}
