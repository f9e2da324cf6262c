package util

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// audioExtensions are the source formats the decoder is expected to handle.
var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".aiff": true, ".aif": true,
	".m4a": true, ".flac": true, ".ogg": true,
}

// IsValidAudioFile checks if a filename has a recognized audio extension.
func IsValidAudioFile(filename string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(filename))]
}

// audioContentTypes maps a stored source format (as produced by
// filepath.Ext on the original upload) to the Content-Type the archival
// byte-serving endpoint must answer with.
var audioContentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".aiff": "audio/aiff",
	".aif":  "audio/aiff",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".webm": "audio/webm",
}

// ContentTypeForExt returns the archival Content-Type for a stored source
// format, falling back to a generic binary type for anything unrecognized
// rather than depending on the OS's /etc/mime.types.
func ContentTypeForExt(ext string) string {
	if ct, ok := audioContentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// recognizedAudioMimes are the magic-byte-sniffed types the decoder is
// expected to handle, keyed by mimetype's canonical MIME string.
var recognizedAudioMimes = map[string]bool{
	"audio/mpeg": true, "audio/wav": true, "audio/x-wav": true,
	"audio/flac": true, "audio/x-flac": true, "audio/ogg": true,
	"audio/mp4": true, "audio/aiff": true, "audio/x-aiff": true,
	"video/webm": true,
}

// SniffAudioMime inspects the file's magic bytes (not its extension or
// declared Content-Type) and reports whether it looks like a supported
// audio container.
func SniffAudioMime(data []byte) (mime string, ok bool) {
	m := mimetype.Detect(data)
	for detected := m; detected != nil; detected = detected.Parent() {
		if recognizedAudioMimes[detected.String()] {
			return detected.String(), true
		}
	}
	return m.String(), false
}

// ValidateFilename checks that a display filename is safe and bounded.
func ValidateFilename(filename string) error {
	if filename == "" {
		return errors.New("filename is required")
	}
	if strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		return errors.New("filename cannot contain directory paths")
	}
	if len(filename) > 255 {
		return errors.New("filename too long (max 255 characters)")
	}
	return nil
}

// EscapeLikePattern escapes SQL LIKE/ILIKE wildcard characters so a
// user-supplied search string is matched literally.
func EscapeLikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateUUID validates UUID format (basic check).
func ValidateUUID(id string) error {
	if id == "" {
		return errors.New("id is required")
	}
	if len(id) != 36 || !uuidPattern.MatchString(id) {
		return errors.New("invalid id format")
	}
	return nil
}
