package twitter

import "regexp"

// The API hands out thumbnail avatar URLs with a _normal size suffix
// before the extension. Stripping the suffix yields the original upload.
var normalSuffix = regexp.MustCompile(`_normal(\.\w+)$`)

// FullsizeAvatar rewrites a profile image URL to its full resolution
// variant. URLs without the size suffix come back unchanged.
func FullsizeAvatar(avatarURL string) string {
	return normalSuffix.ReplaceAllString(avatarURL, "$1")
}
