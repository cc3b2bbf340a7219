package ocr

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var pageNumber = regexp.MustCompile(`_(\d{2})\.(?i:jpe?g|png)$`)

const unnumbered = 999

// SortedImages lists the photos in dir ordered by the two-digit page number
// at the end of their names. Photos without one come last, by name.
func SortedImages(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("image directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}

	sort.SliceStable(files, func(i, j int) bool {
		ni, nj := imageNumber(files[i]), imageNumber(files[j])
		if ni != nj {
			return ni < nj
		}
		return files[i] < files[j]
	})
	return files, nil
}

// IsImage reports whether name has a photo extension.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func imageNumber(path string) int {
	m := pageNumber.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return unnumbered
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
