package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bitrise-io/go-steputils/stepconf"
	"github.com/bitrise-io/go-utils/log"
	"github.com/bitrise-io/go-utils/pathutil"
	"github.com/bitrise-steplib/steps-apk-inspector/inspect"
)

const usage = `Usage: apk-inspector <file.apk|file.apkm> [...]

Inspects APK and APKM files for permissions and package queries.`

// -----------------------
// --- Models
// -----------------------

type configs struct {
	VerboseLog bool   `env:"APK_INSPECTOR_VERBOSE"`
	Output     string `env:"APK_INSPECTOR_OUTPUT"`
}

type outputFormat string

const (
	textOutput outputFormat = "text"
	yamlOutput outputFormat = "yaml"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch s {
	case "", string(textOutput):
		return textOutput, nil
	case string(yamlOutput):
		return yamlOutput, nil
	default:
		return "", fmt.Errorf("invalid APK_INSPECTOR_OUTPUT: %s, available: %s, %s", s, textOutput, yamlOutput)
	}
}

// -----------------------
// --- Functions
// -----------------------

func failf(format string, v ...interface{}) {
	log.Errorf(format, v...)
	os.Exit(1)
}

// resolveInput turns a CLI argument into an absolute path to an existing,
// inspectable file.
func resolveInput(arg string) (string, error) {
	pth, err := pathutil.AbsPath(arg)
	if err != nil {
		return "", fmt.Errorf("failed to expand path (%s): %s", arg, err)
	}

	if exist, err := pathutil.IsPathExists(pth); err != nil {
		return "", fmt.Errorf("failed to check if file exists (%s): %s", pth, err)
	} else if !exist {
		return "", fmt.Errorf("file not found: %s", pth)
	}

	if !inspect.IsSupported(pth) {
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(pth))
	}
	return pth, nil
}

// run inspects every argument in order. Per-file failures go to errOut and
// do not stop the remaining files.
func run(args []string, inspector *inspect.Inspector, format outputFormat, out, errOut io.Writer) {
	for _, arg := range args {
		pth, err := resolveInput(arg)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %s\n", err)
			continue
		}

		log.Debugf("Inspecting %s", pth)
		result, err := inspector.Inspect(pth)
		if err != nil {
			fmt.Fprintf(errOut, "Error inspecting %s: %s\n", arg, err)
			continue
		}

		if format == yamlOutput {
			if err := printResultYAML(out, result); err != nil {
				fmt.Fprintf(errOut, "Error rendering %s: %s\n", arg, err)
			}
			continue
		}
		printResult(out, result)
	}
}

// -----------------------
// --- Main
// -----------------------
func main() {
	var cfg configs
	if err := stepconf.Parse(&cfg); err != nil {
		failf("Process config: failed to parse config: %s", err)
	}
	log.SetEnableDebugLog(cfg.VerboseLog)
	if cfg.VerboseLog {
		stepconf.Print(cfg)
	}

	format, err := parseOutputFormat(cfg.Output)
	if err != nil {
		failf("Process config: %s", err)
	}

	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Println(usage)
		os.Exit(1)
	}

	run(args, inspect.New(), format, os.Stdout, os.Stderr)
}
