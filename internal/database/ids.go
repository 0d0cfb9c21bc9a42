package database

import (
	"github.com/google/uuid"
)

// PlatformTelegram is the only platform recorded today.
const PlatformTelegram = "telegram"

var (
	personNamespace = uuid.MustParse("6f1d6a52-3d2b-4f0e-9d5b-7d7c2b0f4a11")
	streamNamespace = uuid.MustParse("0b8e52a4-95a4-4c58-8f53-2c1f0cf5b6d2")
)

// PersonID derives the stable person id for a platform user.
func PersonID(platform, userID string) string {
	return uuid.NewSHA1(personNamespace, []byte(platform+":"+userID)).String()
}

// GroupStreamID derives the stream id of a group chat.
func GroupStreamID(platform, groupID string) string {
	return uuid.NewSHA1(streamNamespace, []byte(platform+":group:"+groupID)).String()
}

// PrivateStreamID derives the stream id of a private chat with userID.
func PrivateStreamID(platform, userID string) string {
	return uuid.NewSHA1(streamNamespace, []byte(platform+":private:"+userID)).String()
}
