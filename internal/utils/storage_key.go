package utils

import (
	uuid "github.com/satori/go.uuid"
)

const fallbackUploadName = "upload"

// GenerateStorageKey builds the on-disk name for an uploaded file. With unique
// set, a random UUID prefix keeps concurrent uploads that share a filename
// apart; without it the sanitized name is used as is and the last writer wins.
func GenerateStorageKey(originalName string, unique bool) string {
	name := SecureFilename(originalName)
	if name == "" {
		name = fallbackUploadName
	}
	if !unique {
		return name
	}
	return uuid.NewV4().String() + "_" + name
}
