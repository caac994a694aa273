package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// every command prints through these so output stays uniform
// ═══════════════════════════════════════════════════════════

const rule = "───────────────────────────────────────────────────────────"

// PrintHeader prints a formatted command header
func PrintHeader(title string, fields map[string]string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", title)
	if len(fields) > 0 {
		fmt.Println(rule)
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-12s: %s\n", k, fields[k])
		}
	}
	fmt.Println(rule)
}

// PrintStages prints completed and failed stages of a run
func PrintStages(completed []string, failed map[string]string) {
	if len(completed) > 0 {
		fmt.Printf("✅ Completed: %s\n", strings.Join(completed, ", "))
	}
	names := make([]string, 0, len(failed))
	for name := range failed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("❌ %s: %s\n", name, failed[name])
	}
}

// PrintJSON writes v indented to stdout
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
