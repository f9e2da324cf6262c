package audio

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	"github.com/go-flac/flacvorbis/v2"
	goflac "github.com/go-flac/go-flac/v2"
	"github.com/mewkiz/flac"
)

// Metadata is the best-effort tag/property read for an ingested file.
// Every field besides SHA256 and SizeBytes is optional; a container that
// can't be parsed still yields a usable Metadata with just the hash.
type Metadata struct {
	Title      string
	Artist     string
	Album      string
	Duration   float64
	SampleRate int
	Channels   int
	Bitrate    int
	SHA256     string
	SizeBytes  int64
}

// ExtractMetadata reads tags and container properties for the file at path,
// whose raw bytes are data. It never returns an error: an unreadable or
// unrecognized container just yields the hash and size with the rest zero.
func ExtractMetadata(path string, data []byte) Metadata {
	sum := sha256.Sum256(data)
	md := Metadata{
		SHA256:    hex.EncodeToString(sum[:]),
		SizeBytes: int64(len(data)),
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		extractFLAC(path, &md)
	case ".mp3":
		extractID3(path, &md)
	}

	if md.Title == "" || md.Artist == "" || md.SampleRate == 0 {
		extractGeneric(data, &md)
	}

	return md
}

// extractGeneric covers MP4/M4A and anything else dhowden/tag recognizes,
// and backstops the format-specific readers for fields they left empty.
func extractGeneric(data []byte, md *Metadata) {
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return
	}
	if md.Title == "" {
		md.Title = m.Title()
	}
	if md.Artist == "" {
		md.Artist = m.Artist()
	}
	if md.Album == "" {
		md.Album = m.Album()
	}
}

func extractID3(path string, md *Metadata) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return
	}
	defer t.Close()

	md.Title = t.Title()
	md.Artist = t.Artist()
	md.Album = t.Album()
}

// extractFLAC reads STREAMINFO for audio properties via mewkiz/flac and the
// Vorbis comment block for tags via go-flac, since neither library alone
// covers both.
func extractFLAC(path string, md *Metadata) {
	if stream, err := flac.ParseFile(path); err == nil {
		defer stream.Close()
		info := stream.Info
		md.SampleRate = int(info.SampleRate)
		md.Channels = int(info.NChannels)
		if info.SampleRate > 0 {
			md.Duration = float64(info.NSamples) / float64(info.SampleRate)
		}
	}

	f, err := goflac.ParseFile(path)
	if err != nil {
		return
	}
	for _, block := range f.Meta {
		if block.Type != goflac.VorbisComment {
			continue
		}
		cmt, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			continue
		}
		if vals, err := cmt.Get(flacvorbis.FIELD_TITLE); err == nil && len(vals) > 0 {
			md.Title = vals[0]
		}
		if vals, err := cmt.Get(flacvorbis.FIELD_ARTIST); err == nil && len(vals) > 0 {
			md.Artist = vals[0]
		}
		if vals, err := cmt.Get(flacvorbis.FIELD_ALBUM); err == nil && len(vals) > 0 {
			md.Album = vals[0]
		}
	}
}
