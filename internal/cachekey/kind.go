package cachekey

// Kind identifies one class of cached artifact. The set is closed; the index
// drops records carrying unknown kinds on load.
type Kind string

const (
	TranscodedAudio    Kind = "transcoded-audio"
	ResizedImage       Kind = "resized-image"
	Archive            Kind = "archive"
	WaveformPeaks      Kind = "waveform-peaks"
	EmbeddedCoverWrite Kind = "embedded-cover-write"
)

// Format versions are tracked per kind so that changing the internal
// representation of one artifact class invalidates only that class on load.
// Bump the matching constant whenever produced bytes change shape.
const (
	transcodedAudioVersion    = 1
	resizedImageVersion       = 1
	archiveVersion            = 1
	waveformPeaksVersion      = 1
	embeddedCoverWriteVersion = 1
)

var kindVersions = map[Kind]int{
	TranscodedAudio:    transcodedAudioVersion,
	ResizedImage:       resizedImageVersion,
	Archive:            archiveVersion,
	WaveformPeaks:      waveformPeaksVersion,
	EmbeddedCoverWrite: embeddedCoverWriteVersion,
}

var kindDirs = map[Kind]string{
	TranscodedAudio:    "transcodes",
	ResizedImage:       "images",
	Archive:            "archives",
	WaveformPeaks:      "waveforms",
	EmbeddedCoverWrite: "covers",
}

// Salted kinds mix the per-deployment salt into their keys so published
// asset URLs rotate with the salt (hotlink rotation).
var saltedKinds = map[Kind]bool{
	TranscodedAudio: true,
	Archive:         true,
}

// Kinds returns all known kinds in a stable order.
func Kinds() []Kind {
	return []Kind{TranscodedAudio, ResizedImage, Archive, WaveformPeaks, EmbeddedCoverWrite}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindVersions[k]
	return ok
}

// FormatVersion returns the running tool's format version for k, or zero for
// unknown kinds.
func (k Kind) FormatVersion() int {
	return kindVersions[k]
}

// Dir returns the cache subdirectory artifacts of this kind live in.
func (k Kind) Dir() string {
	if dir, ok := kindDirs[k]; ok {
		return dir
	}
	return string(k)
}

// Salted reports whether keys of this kind mix in the deployment salt.
func (k Kind) Salted() bool {
	return saltedKinds[k]
}
