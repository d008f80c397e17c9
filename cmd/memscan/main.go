package main

import (
	"flag"
	"fmt"
	"os"

	"memscan/constraint"
	"memscan/engine"
	"memscan/hexdump"
	"memscan/scantype"
	"memscan/snapshot"
)

// This demo drives the engine against a synthetic in-process target:
// a buffer posing as mapped memory behind the byte reader callback.
// It runs an exact-value first scan, mutates the target, then narrows
// with a Changed next scan, printing the survivors after each step.

const targetBase = 0x10000000

func main() {
	typeFlag := flag.String("type", "i32le", "scan type (u8..i64, f32, f64, optional le/be suffix)")
	alignFlag := flag.Int("align", 0, "element alignment: 0=auto, 1, 2, 4, 8")
	constraintFlag := flag.String("constraint", "", "constraint tree as JSON, e.g. '{\"kind\":\"eq\",\"value\":1000}'")
	configFlag := flag.String("config", "", "optional YAML engine config")
	flag.Parse()

	scanType, err := scantype.ParseType(*typeFlag)
	if err != nil {
		fmt.Printf("Error parsing type: %v\n", err)
		os.Exit(1)
	}

	cfg := engine.Config{}
	if *configFlag != "" {
		cfg, err = engine.LoadConfig(*configFlag)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// Synthetic target memory. A front-end would install a reader that
	// calls process_vm_readv or ReadProcessMemory instead.
	target := make([]byte, 4096)
	for i := 0; i < len(target); i += 4 {
		target[i] = byte(i >> 4)
	}
	// plant a few values worth finding
	putU32(target, 0x100, 1000)
	putU32(target, 0x200, 1000)
	putU32(target, 0x300, 31337)

	reader := func(addr uint64, buf []byte) (int, error) {
		off := addr - targetBase
		if off >= uint64(len(target)) {
			return 0, snapshot.ErrAddressNotMapped
		}
		return copy(buf, target[off:]), nil
	}

	eng, err := engine.New(cfg, reader, nil)
	if err != nil {
		fmt.Printf("Error creating engine: %v\n", err)
		os.Exit(1)
	}

	var first constraint.Constraint
	if *constraintFlag != "" {
		first, err = constraint.ParseJSON([]byte(*constraintFlag), scanType)
		if err != nil {
			fmt.Printf("Error parsing constraint: %v\n", err)
			os.Exit(1)
		}
	} else {
		defValue, err := scantype.ParseValue(scanType, "1000")
		if err != nil {
			fmt.Printf("Error building default constraint: %v\n", err)
			os.Exit(1)
		}
		first = constraint.NewScanValue(constraint.Eq, defValue)
	}

	stack := &snapshot.Stack{}
	stack.Push(snapshot.Collect("Initial", scantype.Alignment(*alignFlag), []snapshot.MappedRange{
		{Base: targetBase, Size: len(target), Readable: true},
	}))

	progress := func(current, total uint64, canFinalize bool) {
		if canFinalize {
			fmt.Printf("  progress: %d/%d regions\n", current, total)
		}
	}

	// first scan
	result, err := eng.Scan(engine.Request{
		Name:        "First Scan",
		Snapshot:    stack.Current(),
		Constraints: []constraint.Constraint{first},
		Type:        scanType,
		Alignment:   scantype.Alignment(*alignFlag),
	}, &engine.Cancel{}, progress)
	if err != nil {
		fmt.Printf("Scan error: %v\n", err)
		os.Exit(1)
	}
	stack.Push(result)
	printSurvivors(result)

	// mutate one planted value, then narrow to what changed
	putU32(target, 0x100, 1001)

	result, err = eng.Scan(engine.Request{
		Name:        "Changed Scan",
		Snapshot:    stack.Current(),
		Constraints: []constraint.Constraint{constraint.NewScan(constraint.Changed)},
		Type:        scanType,
		Alignment:   scantype.Alignment(*alignFlag),
	}, &engine.Cancel{}, progress)
	if err != nil {
		fmt.Printf("Scan error: %v\n", err)
		os.Exit(1)
	}
	stack.Push(result)
	printSurvivors(result)
}

func printSurvivors(snap *snapshot.Snapshot) {
	fmt.Printf("%s: %d regions, %d elements\n", snap.Name, snap.RegionCount(), snap.ElementCount())

	opts := hexdump.DefaultOptions()
	opts.MaxLines = 4
	for _, region := range snap.Regions() {
		opts.StartOffset = region.BaseAddress()
		opts.Highlights = []hexdump.Range{{
			Start: region.BaseAddress(),
			End:   region.BaseAddress() + uint64(region.Size),
		}}
		window := region.CurrentBytes()
		if len(window) > region.Size {
			window = window[:region.Size]
		}
		fmt.Print(hexdump.Dump(window, opts))
	}
}

func putU32(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}
