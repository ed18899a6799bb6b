package cache

// Data kinds cached per video.
const (
	KindMetadata   = "metadata"
	KindTranscript = "transcript"
	KindSummary    = "summary"
	KindSegments   = "segments"
	KindComments   = "comments"
)

// VideoPrefix is the key prefix of every per-video entry.
const VideoPrefix = "video_"

// Key builds the storage key for one kind of data about a video.
func Key(videoID, kind string) string {
	return VideoPrefix + videoID + "_" + kind
}

// TranscriptKey is the transcript key for one language.
func TranscriptKey(videoID, lang string) string {
	return Key(videoID, KindTranscript) + "_" + lang
}

// videoKeyPrefix matches every entry of one video.
func videoKeyPrefix(videoID string) string {
	return VideoPrefix + videoID + "_"
}
