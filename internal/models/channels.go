package models

// Channel describes one output target of the reduce phase
type Channel struct {
	PayloadKey string // Key in GeneratedContent.Payload
	Platform   string // Name used in validation reports
	EmitsJSON  bool   // Channel output is structured JSON, not prose
}

// Channels is the fixed output catalog. Payload keys and platform
// names differ for the article channels and must not be conflated.
var Channels = []Channel{
	{PayloadKey: "medium_text", Platform: "medium"},
	{PayloadKey: "habr_text", Platform: "habr"},
	{PayloadKey: "linkedin_text", Platform: "linkedin"},
	{PayloadKey: "research_article", Platform: "research_article"},
	{PayloadKey: "banana_video_prompt", Platform: "banana_video_prompt", EmitsJSON: true},
}

// ChannelByPlatform returns the catalog entry for a platform name
func ChannelByPlatform(platform string) (Channel, bool) {
	for _, ch := range Channels {
		if ch.Platform == platform {
			return ch, true
		}
	}
	return Channel{}, false
}

// ChannelByPayloadKey returns the catalog entry for a payload key
func ChannelByPayloadKey(key string) (Channel, bool) {
	for _, ch := range Channels {
		if ch.PayloadKey == key {
			return ch, true
		}
	}
	return Channel{}, false
}

// reportEntry resolves a channel's report entry, accepting either the
// platform name or the payload key as the report key.
func reportEntry(report map[string]ChannelReport, ch Channel) (ChannelReport, bool) {
	if entry, ok := report[ch.Platform]; ok {
		return entry, true
	}
	if entry, ok := report[ch.PayloadKey]; ok {
		return entry, true
	}
	return ChannelReport{}, false
}

// FailedChannels returns the catalog channels whose report entry
// failed. Channels with no report entry are not considered failed.
func FailedChannels(report map[string]ChannelReport) []Channel {
	var failed []Channel
	for _, ch := range Channels {
		entry, ok := reportEntry(report, ch)
		if !ok {
			continue
		}
		if entry.Failed() {
			failed = append(failed, ch)
		}
	}
	return failed
}
