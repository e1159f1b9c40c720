// Command staticlint is the project's multichecker. It always runs a fixed
// set of go/analysis passes, ineffassign, nilerr and the noosexit analyzer,
// and adds the staticcheck analyzers named in a JSON file.
//
// The file is looked up in STATICLINT_CONFIG first, then as staticlint.json
// next to the binary. A missing file enables every SA analyzer.
//
//	{"staticcheck": ["SA1000", "SA4006"], "disable": ["unmarshal"]}
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/staticcheck"

	"github.com/patric-chuzhbe/linkfy/cmd/staticlint/noosexit"
)

const (
	configEnv      = "STATICLINT_CONFIG"
	configFileName = "staticlint.json"
)

type lintConfig struct {
	Staticcheck []string `json:"staticcheck"`
	Disable     []string `json:"disable"`
}

func loadConfig() (*lintConfig, error) {
	path := os.Getenv(configEnv)
	if path == "" {
		executable, err := os.Executable()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(filepath.Dir(executable), configFileName)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &lintConfig{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg lintConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("in cmd/staticlint/main.go/loadConfig(): error while `json.Unmarshal()` calling: %w", err)
	}

	return &cfg, nil
}

func baseAnalyzers() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		copylock.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		printf.Analyzer,
		structtag.Analyzer,
		unmarshal.Analyzer,
		unreachable.Analyzer,
		ineffassign.Analyzer,
		nilerr.Analyzer,
		noosexit.Analyzer,
	}
}

// selectAnalyzers merges the base set with the staticcheck analyzers
// enabled by cfg and then removes the disabled ones by name.
func selectAnalyzers(cfg *lintConfig, base []*analysis.Analyzer, extra []*analysis.Analyzer) []*analysis.Analyzer {
	enabled := make(map[string]bool, len(cfg.Staticcheck))
	for _, name := range cfg.Staticcheck {
		enabled[name] = true
	}
	disabled := make(map[string]bool, len(cfg.Disable))
	for _, name := range cfg.Disable {
		disabled[name] = true
	}

	var result []*analysis.Analyzer
	for _, analyzer := range base {
		if !disabled[analyzer.Name] {
			result = append(result, analyzer)
		}
	}
	for _, analyzer := range extra {
		if disabled[analyzer.Name] {
			continue
		}
		if len(enabled) == 0 && strings.HasPrefix(analyzer.Name, "SA") || enabled[analyzer.Name] {
			result = append(result, analyzer)
		}
	}

	return result
}

func staticcheckAnalyzers() []*analysis.Analyzer {
	result := make([]*analysis.Analyzer, 0, len(staticcheck.Analyzers))
	for _, v := range staticcheck.Analyzers {
		result = append(result, v.Analyzer)
	}

	return result
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	multichecker.Main(selectAnalyzers(cfg, baseAnalyzers(), staticcheckAnalyzers())...)
}
