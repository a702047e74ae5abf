package glwindow

import "strings"

// extensionList is a space separated extension string as returned by
// glXQueryExtensionsString or wglGetExtensionsStringARB.
type extensionList string

func (e extensionList) has(name string) bool {
	for _, ext := range strings.Fields(string(e)) {
		if ext == name {
			return true
		}
	}
	return false
}
