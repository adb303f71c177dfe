// Package debug provides utilities for easy integration of color debugging
package debug

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnableColorIndexDebugging enables tracing for a single NES palette index,
// comparing its decoded RGB against expectedRGB on every conversion. Use it
// to chase a color-emphasis or palette-mirroring regression down to the
// frame/scanline/cycle where the decoded value first diverges.
func EnableColorIndexDebugging(colorIndex uint8, expectedRGB uint32) (*ColorDebugSession, error) {
	debugDir := filepath.Join("debug_output", fmt.Sprintf("color_%02x", colorIndex))
	if err := os.MkdirAll(debugDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create debug directory: %v", err)
	}

	session, err := QuickColorDebugging(debugDir, colorIndex, expectedRGB)
	if err != nil {
		return nil, fmt.Errorf("failed to start color debugging: %v", err)
	}

	fmt.Printf("Color debugging enabled for palette index 0x%02X.\n", colorIndex)
	fmt.Printf("Debug output will be saved to: %s\n", session.GetSessionOutputDir())
	fmt.Printf("Tracking color index 0x%02X (expected RGB 0x%06X) for corruption detection.\n", colorIndex, expectedRGB)

	return session, nil
}

// CreateColorDebugEnvironment sets up a complete debugging environment,
// tracing the given palette index through every pipeline stage.
func CreateColorDebugEnvironment(outputDir string, colorIndex uint8) error {
	InitializeColorDebugging(outputDir)
	EnableColorDebugging()
	TraceColorIndex(colorIndex)

	fmt.Printf("Color debug environment initialized in: %s\n", outputDir)
	fmt.Printf("Use DumpColorDebugReport() to generate analysis.\n")

	return nil
}

// AnalyzeColorPipeline performs a quick analysis of the current debug data
// for whatever palette index the active session was configured to trace.
func AnalyzeColorPipeline(targetIndex uint8, expectedRGB uint32) {
	debugger := GetColorDebugger()
	if debugger == nil {
		fmt.Println("Color debugger not initialized")
		return
	}

	events := debugger.GetEvents()
	if len(events) == 0 {
		fmt.Println("No color pipeline events recorded")
		return
	}

	fmt.Printf("Color Pipeline Analysis:\n")
	fmt.Printf("Total Events: %d\n", len(events))

	stageCount := make(map[ColorStage]int)
	for _, event := range events {
		stageCount[event.Stage]++
	}

	fmt.Printf("Events by Stage:\n")
	for stage, count := range stageCount {
		fmt.Printf("  %s: %d\n", stage, count)
	}

	targetEvents := 0
	corruptedEvents := 0

	for _, event := range events {
		if event.Stage == StageNESColorToRGB && event.InputValue == uint32(targetIndex) {
			targetEvents++
			if event.OutputValue != expectedRGB {
				corruptedEvents++
				fmt.Printf("  CORRUPTION: Color 0x%02X -> 0x%06X (expected 0x%06X)\n", targetIndex, event.OutputValue, expectedRGB)
			}
		}
	}

	if targetEvents > 0 {
		fmt.Printf("Index 0x%02X Analysis:\n", targetIndex)
		fmt.Printf("  Total conversions: %d\n", targetEvents)
		fmt.Printf("  Corrupted conversions: %d\n", corruptedEvents)
		if corruptedEvents > 0 {
			fmt.Printf("  Corruption rate: %.1f%%\n", float64(corruptedEvents)/float64(targetEvents)*100)
		}
	}
}

// PrintColorPaletteReference prints a handful of entries from the NES master
// palette for reference while reading a debug dump.
func PrintColorPaletteReference() {
	fmt.Println("NES Color Palette Reference (sample entries):")
	fmt.Println("Index | RGB      | Notes")
	fmt.Println("------|----------|------------------")
	fmt.Println("0x00  | #666666  | Gray (common background fill)")
	fmt.Println("0x0F  | #000000  | Black")
	fmt.Println("0x30  | #FFFEFF  | White")
	fmt.Println()
	fmt.Println("Common corruption patterns:")
	fmt.Println("Expected hue -> brown = color emphasis bits misapplied")
	fmt.Println("Expected hue -> red   = emphasis or palette mirroring bug")
	fmt.Println("Any color -> gray     = greyscale mode stuck enabled")
}

// QuickColorTest runs a quick sanity pass over a handful of known index/RGB
// pairs, recording each as a traced pipeline event.
func QuickColorTest(testColors []struct {
	Index    uint8
	Expected uint32
	Name     string
}) {
	fmt.Println("Running quick color conversion test...")

	CreateColorDebugEnvironment("test_debug", testColors[0].Index)
	defer DisableColorDebugging()

	for _, test := range testColors {
		HookNESColorToRGB(0, 0, 0, 0, 0, test.Index, test.Expected)
		fmt.Printf("Test: 0x%02X -> #%06X (%s)\n", test.Index, test.Expected, test.Name)
	}

	fmt.Println("Quick test complete. Check debug output for detailed analysis.")
}

// GetDebugStatistics returns current debugging statistics.
func GetDebugStatistics() map[string]interface{} {
	debugger := GetColorDebugger()
	if debugger == nil {
		return map[string]interface{}{
			"enabled": false,
			"error":   "debugger not initialized",
		}
	}

	events := debugger.GetEvents()
	stageCount := make(map[ColorStage]int)

	for _, event := range events {
		stageCount[event.Stage]++
	}

	return map[string]interface{}{
		"enabled":      true,
		"total_events": len(events),
		"stage_counts": stageCount,
	}
}
