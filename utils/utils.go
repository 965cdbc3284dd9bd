package utils

import (
	"crypto/md5"
	"fmt"
	"path"
	"strings"
)

// ContainsString returns true iff the provided string slice hay contains string
// needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

// RemoveString returns a copy of hay with every occurrence of needle removed.
// Order of the remaining elements is preserved.
func RemoveString(hay []string, needle string) []string {
	res := []string{}
	for _, str := range hay {
		if str != needle {
			res = append(res, str)
		}
	}
	return res
}

// TextToMd5Hash returns the hex encoded md5 digest of the provided text.
func TextToMd5Hash(text string) (string, error) {
	h := md5.New()
	if _, err := h.Write([]byte(text)); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// GetUrlExtNameWithDot extracts the file extension (including the leading dot)
// from a url or file name, stripping any query string. Returns empty string if
// there is no extension.
func GetUrlExtNameWithDot(url string) string {
	if idx := strings.Index(url, "?"); idx != -1 {
		url = url[:idx]
	}
	return path.Ext(url)
}
