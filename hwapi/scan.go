package hwapi

import (
	"bytes"
	"regexp"
	"sort"
	"sync"

	"github.com/bitrise-io/go-utils/log"
	"github.com/bitrise-steplib/steps-apk-inspector/archive"
)

// classes.dex, classes2.dex, ... at the archive root
var dexEntryExp = regexp.MustCompile(`^classes\d*\.dex$`)

// IsDexEntry reports whether an archive entry is one of the package's dex files.
func IsDexEntry(name string) bool {
	return dexEntryExp.MatchString(name)
}

// Match returns the catalog labels whose descriptor occurs in content, in
// catalog order.
func Match(content []byte) []string {
	var labels []string
	for _, p := range Catalog {
		if bytes.Contains(content, []byte(p.Descriptor)) {
			labels = append(labels, p.Label)
		}
	}
	return labels
}

// Scan reads every dex entry of the APK and returns the sorted, distinct
// labels of the catalog patterns found. A dex entry that fails to read is
// logged and skipped; only failing to open the APK is an error.
func Scan(apkPath string) ([]string, error) {
	r, err := archive.Open(apkPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Warnf("Failed to close APK (%s): %s", apkPath, err)
		}
	}()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		found = map[string]bool{}
	)

	it := r.Entries()
	for it.Next() {
		entry := it.Entry()
		if !IsDexEntry(entry.Name) {
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			content, err := r.ReadAll(entry)
			if err != nil {
				log.Warnf("Skipping unreadable dex entry: %s", err)
				return
			}

			labels := Match(content)
			log.Debugf("%s: %d bytes, %d hardware API patterns", entry.Name, len(content), len(labels))

			mu.Lock()
			defer mu.Unlock()
			for _, label := range labels {
				found[label] = true
			}
		}()
	}

	wg.Wait()

	apis := make([]string, 0, len(found))
	for label := range found {
		apis = append(apis, label)
	}
	sort.Strings(apis)

	return apis, nil
}
