package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/bitrise-steplib/steps-apk-inspector/inspect"
	"gopkg.in/yaml.v3"
)

var separator = strings.Repeat("=", 60)

func printSection(w io.Writer, title string, items []string) {
	fmt.Fprintf(w, "\n%s:\n", title)
	if len(items) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func featureLines(features []inspect.Feature) []string {
	var lines []string
	for _, f := range features {
		requiredStr := "optional"
		if f.Required {
			requiredStr = "required"
		}
		lines = append(lines, fmt.Sprintf("%s (%s)", f.Name, requiredStr))
	}
	return lines
}

func printResult(w io.Writer, r inspect.Result) {
	fmt.Fprintf(w, "\n%s\n", separator)
	fmt.Fprintf(w, "File: %s\n", r.FilePath)
	if r.PackageName != "" {
		fmt.Fprintf(w, "Package: %s\n", r.PackageName)
	}
	if r.VersionName != "" || r.VersionCode != "" {
		fmt.Fprintf(w, "Version: %s (%s)\n", r.VersionName, r.VersionCode)
	}
	if r.MinSDKVersion != "" || r.TargetSDKVersion != "" {
		fmt.Fprintf(w, "SDK: min %s, target %s\n", r.MinSDKVersion, r.TargetSDKVersion)
	}
	fmt.Fprintln(w, separator)

	printSection(w, "PERMISSIONS", r.Permissions)
	printSection(w, "USES FEATURES", featureLines(r.UsesFeatures))
	printSection(w, "HARDWARE APIS (detected in code)", r.HardwareAPIs)
	printSection(w, "QUERIED PACKAGES", r.QueriedPackages)
	printSection(w, "QUERIED INTENTS", r.QueriedIntents)
	printSection(w, "QUERIED PROVIDERS", r.QueriedProviders)

	fmt.Fprintln(w)
}

// printResultYAML writes one YAML document per result, so the output of a
// multi-file run is a valid YAML stream.
func printResultYAML(w io.Writer, r inspect.Result) error {
	if _, err := fmt.Fprintln(w, "---"); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
