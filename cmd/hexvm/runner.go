package main

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sibexico/HexVM/vmm"
)

// runScript replays cmds against m. Each pid runs its lines in order on its
// own goroutine; output is written per pid in ascending pid order.
func runScript(m *vmm.Manager, cmds []command, out io.Writer) error {
	byPID := make(map[uint32][]command)
	for _, c := range cmds {
		byPID[c.pid] = append(byPID[c.pid], c)
	}

	pids := make([]uint32, 0, len(byPID))
	for pid := range byPID {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })

	procs := make([]*vmm.Process, len(pids))
	for i, pid := range pids {
		p, err := m.NewProcess(pid)
		if err != nil {
			return fmt.Errorf("failed to create process %d: %w", pid, err)
		}
		procs[i] = p
	}

	results := make([]bytes.Buffer, len(pids))
	var wg sync.WaitGroup
	for i := range pids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			execute(procs[i], byPID[pids[i]], &results[i])
		}(i)
	}
	wg.Wait()

	for i, pid := range pids {
		if _, err := fmt.Fprintf(out, "== pid %d ==\n", pid); err != nil {
			return err
		}
		if _, err := out.Write(results[i].Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// execute runs one process's lines. A failing line is reported and the
// process carries on, the way a simulated process sees an error return.
func execute(p *vmm.Process, cmds []command, w io.Writer) {
	for _, c := range cmds {
		if err := apply(p, c, w); err != nil {
			fmt.Fprintf(w, "line %d: %s: error: %v\n", c.line, c.op, err)
		}
	}
}

func apply(p *vmm.Process, c command, w io.Writer) error {
	switch c.op {
	case "alloc":
		start, err := p.Alloc(c.size, c.rgid)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "alloc rg=%d size=%d -> 0x%08x\n", c.rgid, c.size, start)

	case "free":
		if err := p.Free(c.rgid); err != nil {
			return err
		}
		fmt.Fprintf(w, "free rg=%d\n", c.rgid)

	case "write":
		if err := p.Write(c.rgid, c.offset, c.value); err != nil {
			return err
		}
		fmt.Fprintf(w, "write rg=%d off=%d val=0x%02x\n", c.rgid, c.offset, c.value)

	case "read":
		v, err := p.Read(c.rgid, c.offset)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "read rg=%d off=%d -> 0x%02x\n", c.rgid, c.offset, v)

	case "writestr":
		if err := p.WriteString(c.rgid, c.text); err != nil {
			return err
		}
		fmt.Fprintf(w, "writestr rg=%d %q\n", c.rgid, c.text)

	case "readstr":
		s, err := p.ReadString(c.rgid)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "readstr rg=%d -> %q\n", c.rgid, s)

	case "dump":
		return dumpProcess(p, w)

	case "exit":
		if err := p.Exit(); err != nil {
			return err
		}
		fmt.Fprintln(w, "exit")

	default:
		return fmt.Errorf("unknown op %q", c.op)
	}
	return nil
}

func dumpProcess(p *vmm.Process, w io.Writer) error {
	mm := p.AddressSpace()

	if err := mm.DumpVMAs(w); err != nil {
		return err
	}
	if err := mm.DumpRegions(w); err != nil {
		return err
	}
	if err := mm.DumpFIFO(w); err != nil {
		return err
	}
	return mm.DumpPageTable(w, 0, 0)
}
