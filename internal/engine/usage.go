package engine

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/audit"
)

// usageSample is one entry of the JSON-array usage blob shape produced by
// the reference worker's container monitor (SPEC_FULL.md §4.8, grounded in
// original_source/src/Page/run_code.py's monitor_container_usage).
type usageSample struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemUsageMB float64 `json:"mem_usage_MB"`
}

var (
	reCPU       = regexp.MustCompile(`(?i)cpu\s*usage\s*:\s*([0-9.]+)`)
	reMemory    = regexp.MustCompile(`(?i)memory\s*usage\s*:\s*([0-9.]+)`)
	reExecution = regexp.MustCompile(`(?i)execution\s*time\s*:\s*([0-9.]+)`)
)

// parseUsage implements the usage-blob parsing rule in spec.md §4.4: try
// the JSON-array-of-samples form first; on any parse failure fall back to
// line-wise regex extraction of a plain-text report; on total failure
// return a zeroed record with the raw bytes preserved.
func parseUsage(raw []byte) audit.UsageRecord {
	if rec, ok := parseUsageJSON(raw); ok {
		return rec
	}
	if rec, ok := parseUsageText(raw); ok {
		return rec
	}
	return audit.UsageRecord{Raw: raw, ParsedOK: false}
}

func parseUsageJSON(raw []byte) (audit.UsageRecord, bool) {
	var samples []usageSample
	if err := json.Unmarshal(raw, &samples); err != nil {
		return audit.UsageRecord{}, false
	}
	if len(samples) == 0 {
		return audit.UsageRecord{}, false
	}

	var cpuSum, memSum float64
	for _, s := range samples {
		cpuSum += s.CPUPercent
		memSum += s.MemUsageMB
	}

	n := float64(len(samples))
	return audit.UsageRecord{
		CPUPercent:           cpuSum / n,
		MemoryMB:             memSum / n,
		ExecutionTimeSeconds: n,
		Raw:                  raw,
		ParsedOK:             true,
	}, true
}

func parseUsageText(raw []byte) (audit.UsageRecord, bool) {
	text := string(raw)

	cpu, cpuOK := firstFloatMatch(reCPU, text)
	mem, memOK := firstFloatMatch(reMemory, text)
	exec, execOK := firstFloatMatch(reExecution, text)

	if !cpuOK && !memOK && !execOK {
		return audit.UsageRecord{}, false
	}

	return audit.UsageRecord{
		CPUPercent:           cpu,
		MemoryMB:             mem,
		ExecutionTimeSeconds: exec,
		Raw:                  raw,
		ParsedOK:             true,
	}, true
}

func firstFloatMatch(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
